// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package redisutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	sentinelScheme      = "redis+sentinel"
	defaultSentinelPort = "26379"
)

// RedisClientFromURL returns nil for an empty url. Besides the redis:// and
// rediss:// forms go-redis understands, it accepts sentinel urls:
//
//	redis+sentinel://<user>:<password>@<host1>:<port1>,<host2>:<port2>/<master_name>[/<db_number>]?dial_timeout=3s
func RedisClientFromURL(redisUrl string) (redis.UniversalClient, error) {
	if redisUrl == "" {
		return nil, nil
	}
	u, err := url.Parse(redisUrl)
	if err != nil {
		return nil, err
	}
	if u.Scheme == sentinelScheme {
		options, err := parseFailoverRedisUrl(u)
		if err != nil {
			return nil, err
		}
		return redis.NewFailoverClient(options), nil
	}
	options, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(options), nil
}

func parseFailoverRedisUrl(u *url.URL) (*redis.FailoverOptions, error) {
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return nil, fmt.Errorf("redis: master name is required")
	}
	if len(segments) > 2 {
		return nil, fmt.Errorf("redis: invalid URL path: %s", u.Path)
	}
	var sentinels []string
	for _, host := range strings.Split(u.Host, ",") {
		sentinels = append(sentinels, withDefaultPort(host))
	}

	// go-redis parses the query options; present it a plain url carrying
	// the first sentinel and the database number.
	plain := *u
	plain.Scheme = "redis"
	plain.Host = sentinels[0]
	plain.Path = ""
	if len(segments) == 2 {
		plain.Path = "/" + segments[1]
	}
	o, err := redis.ParseURL(plain.String())
	if err != nil {
		return nil, err
	}
	return &redis.FailoverOptions{
		MasterName:       segments[0],
		SentinelAddrs:    sentinels,
		SentinelUsername: o.Username,
		SentinelPassword: o.Password,
		DB:               o.DB,
		Protocol:         o.Protocol,
		ClientName:       o.ClientName,
		MaxRetries:       o.MaxRetries,
		MinRetryBackoff:  o.MinRetryBackoff,
		MaxRetryBackoff:  o.MaxRetryBackoff,
		DialTimeout:      o.DialTimeout,
		ReadTimeout:      o.ReadTimeout,
		WriteTimeout:     o.WriteTimeout,
		PoolFIFO:         o.PoolFIFO,
		PoolSize:         o.PoolSize,
		PoolTimeout:      o.PoolTimeout,
		MinIdleConns:     o.MinIdleConns,
		MaxIdleConns:     o.MaxIdleConns,
		MaxActiveConns:   o.MaxActiveConns,
		ConnMaxIdleTime:  o.ConnMaxIdleTime,
		ConnMaxLifetime:  o.ConnMaxLifetime,
	}, nil
}

func withDefaultPort(hostport string) string {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = hostport, ""
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = defaultSentinelPort
	}
	return net.JoinHostPort(host, port)
}
