// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package util

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func GetTransactOptsFromKeystore(keystorePath, accountAddress, passphrase string, chainId *big.Int) (*bind.TransactOpts, error) {
	if keystorePath == "" {
		return nil, errors.New("keystore path empty")
	}
	ks := keystore.NewKeyStore(keystorePath, keystore.StandardScryptN, keystore.StandardScryptP)
	var account accounts.Account
	if accountAddress == "" {
		if len(ks.Accounts()) == 0 {
			return nil, errors.New("keystore empty")
		}
		account = ks.Accounts()[0]
	} else {
		if !common.IsHexAddress(accountAddress) {
			return nil, fmt.Errorf("invalid account address %q", accountAddress)
		}
		var err error
		account, err = ks.Find(accounts.Account{Address: common.HexToAddress(accountAddress)})
		if err != nil {
			return nil, err
		}
	}
	if err := ks.Unlock(account, passphrase); err != nil {
		return nil, err
	}
	return bind.NewKeyStoreTransactorWithChainID(ks, account, chainId)
}

func GetTransactOptsFromPrivateKey(privateKeyHex string, chainId *big.Int) (*bind.TransactOpts, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("error parsing private key: %w", err)
	}
	return bind.NewKeyedTransactorWithChainID(privateKey, chainId)
}
