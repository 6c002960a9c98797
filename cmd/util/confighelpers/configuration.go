// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package confighelpers

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"
)

var ErrVersion = errors.New("version requested")

func loadEnvironmentVariables(k *koanf.Koanf) error {
	envPrefix := k.String("conf.env-prefix")
	if len(envPrefix) == 0 {
		return nil
	}
	return k.Load(env.Provider(envPrefix+"_", ".", func(s string) string {
		// FOO__BAR -> foo-bar to handle dash in config names
		s = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix+"_")), "__", "-")
		return strings.ReplaceAll(s, "_", ".")
	}), nil)
}

// BeginCommonParse layers configuration sources from lowest to highest
// priority: flag defaults, config files, the conf.string JSON, environment
// variables, and finally flags that were set explicitly.
func BeginCommonParse(f *flag.FlagSet, args []string) (*koanf.Koanf, error) {
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			return nil, ErrVersion
		}
	}
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	if f.NArg() != 0 {
		// Unexpected number of parameters
		return nil, fmt.Errorf("unexpected parameter: %s", f.Arg(0))
	}

	var k = koanf.New(".")

	// Load defaults from command line defaults, which will be overridden later
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	for _, configFile := range k.Strings("conf.file") {
		if len(configFile) == 0 {
			continue
		}
		if err := k.Load(file.Provider(configFile), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading local config file %q: %w", configFile, err)
		}
	}

	if configString := k.String("conf.string"); len(configString) > 0 {
		if err := k.Load(rawbytes.Provider([]byte(configString)), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config string: %w", err)
		}
	}

	if err := loadEnvironmentVariables(k); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Any settings explicitly set on the command line take precedence
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading command line overrides: %w", err)
	}

	return k, nil
}

func EndCommonParse(k *koanf.Koanf, config interface{}) error {
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,

		// Default values
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(",")),
		Metadata:         nil,
		Result:           config,
		WeaklyTypedInput: true,
	}
	return k.UnmarshalWithConf("", config, koanf.UnmarshalConf{DecoderConfig: &decoderConfig})
}

// DumpConfig prints the active configuration as JSON. Fields named in
// extraOverrideFields are replaced first, so secrets can be blanked.
func DumpConfig(k *koanf.Koanf, extraOverrideFields map[string]interface{}) error {
	overrideFields := map[string]interface{}{"conf.dump": false}
	for key, value := range extraOverrideFields {
		overrideFields[key] = value
	}
	if err := k.Load(confmap.Provider(overrideFields, "."), nil); err != nil {
		return fmt.Errorf("error removing extra parameters before dump: %w", err)
	}

	c, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("unable to marshal config file to JSON: %w", err)
	}

	fmt.Println(string(c))
	return nil
}

func GetVersion() (string, string) {
	vcsRevision := "development"
	vcsTime := "development"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return vcsRevision, vcsTime
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
			if len(vcsRevision) > 7 {
				vcsRevision = vcsRevision[:7]
			}
		case "vcs.time":
			vcsTime = setting.Value
		}
	}
	return vcsRevision, vcsTime
}

func PrintErrorAndExit(err error, usage func(string)) {
	vcsRevision, vcsTime := GetVersion()
	fmt.Printf("Version: %v, time: %v\n", vcsRevision, vcsTime)
	if errors.Is(err, ErrVersion) {
		os.Exit(0)
	}
	usage(os.Args[0])
	if err != nil && !strings.Contains(err.Error(), "help requested") {
		fmt.Printf("\nERROR: %s\n", err.Error())
	}
	os.Exit(1)
}
