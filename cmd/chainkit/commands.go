package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/adapter"
	"github.com/shiftwave/chainkit/config"
	"github.com/shiftwave/chainkit/factory"
	"github.com/shiftwave/chainkit/signer/local"
	"github.com/shiftwave/chainkit/swap"
	"github.com/shiftwave/chainkit/swap/oracle"
)

func loadConfig() (*config.Config, error) {
	return config.Load(nil)
}

func chainAdapterFromFlags(cmd *cobra.Command) (adapter.ChainAdapter, error) {
	chain, _ := cmd.Flags().GetString("chain")
	if chain == "" {
		return nil, fatalUsage(cmd, "--chain is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	manager, err := factory.NewChainAdapterManager(cfg)
	if err != nil {
		return nil, err
	}
	return manager.ByChain(ck.ChainIdentifier(chain))
}

func signerFromEnv() (ck.Signer, error) {
	mnemonic := os.Getenv(EnvMnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("set %s (a BIP39 mnemonic) to derive keys", EnvMnemonic)
	}
	return local.NewSigner(mnemonic, os.Getenv(EnvPassphrase))
}

func asJson(data any) string {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(raw)
}

func CmdAddress() *cobra.Command {
	var purpose uint32
	var accountNumber uint32
	var addressIndex uint32
	var isChange bool
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive the address for a BIP44 path",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := chainAdapterFromFlags(cmd)
			if err != nil {
				return err
			}
			signer, err := signerFromEnv()
			if err != nil {
				return err
			}
			input := adapter.GetAddressInput{
				Signer:        signer,
				Purpose:       ck.Purpose(purpose),
				AccountNumber: accountNumber,
				IsChange:      isChange,
				AddressIndex:  addressIndex,
			}
			if purpose == 0 {
				input.Purpose = a.BuildBIP44Params(accountNumber).Purpose
			}
			address, err := a.GetAddress(input)
			if err != nil {
				return err
			}
			fmt.Println(address)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&purpose, "purpose", 0, "BIP44 purpose (44, 49, 84); chain default when omitted")
	cmd.Flags().Uint32Var(&accountNumber, "account", 0, "BIP44 account number")
	cmd.Flags().Uint32Var(&addressIndex, "index", 0, "address index")
	cmd.Flags().BoolVar(&isChange, "change", false, "derive from the change branch")
	return cmd
}

func CmdAccount() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account [address]",
		Short: "Fetch the balance and account state for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := chainAdapterFromFlags(cmd)
			if err != nil {
				return err
			}
			account, err := a.GetAccount(cmd.Context(), ck.Address(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(asJson(account))
			return nil
		},
	}
	return cmd
}

func CmdHistory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [address]",
		Short: "List transactions touching an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := chainAdapterFromFlags(cmd)
			if err != nil {
				return err
			}
			history, err := a.GetTxHistory(cmd.Context(), ck.Address(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(asJson(history))
			return nil
		},
	}
	return cmd
}

func CmdFees() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Estimate the fast, average, and slow fee tiers",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := chainAdapterFromFlags(cmd)
			if err != nil {
				return err
			}
			estimate, err := a.GetFeeData(cmd.Context(), adapter.GetFeeDataInput{})
			if err != nil {
				return err
			}
			fmt.Println(asJson(estimate))
			return nil
		},
	}
	return cmd
}

func CmdQuote() *cobra.Command {
	var sellAssetId string
	var buyAssetId string
	var amount string
	var accountNumber uint32
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap between two assets",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Swap.OracleURL == "" {
				return fmt.Errorf("swap.oracle_url is not configured")
			}
			adapters, err := factory.NewChainAdapterManager(cfg)
			if err != nil {
				return err
			}
			swappers, err := factory.NewSwapManager(cfg, adapters, oracle.NewClient(cfg.Swap.OracleURL))
			if err != nil {
				return err
			}
			sellAsset, err := assetFromId(sellAssetId)
			if err != nil {
				return err
			}
			buyAsset, err := assetFromId(buyAssetId)
			if err != nil {
				return err
			}
			swapper, err := swappers.BestForPair(sellAsset.AssetId, buyAsset.AssetId)
			if err != nil {
				return err
			}
			signer, err := signerFromEnv()
			if err != nil {
				return err
			}
			quote, err := swapper.GetTradeQuote(cmd.Context(), swap.GetTradeQuoteInput{
				SellAsset:     sellAsset,
				BuyAsset:      buyAsset,
				SellAmount:    amount,
				Signer:        signer,
				AccountNumber: accountNumber,
			})
			if err != nil {
				return err
			}
			fmt.Println(asJson(quote))
			return nil
		},
	}
	cmd.Flags().StringVar(&sellAssetId, "sell", "", "sell asset id, e.g. ethereum/erc20:0x...")
	cmd.Flags().StringVar(&buyAssetId, "buy", "", "buy asset id")
	cmd.Flags().StringVar(&amount, "amount", "", "sell amount in base units")
	cmd.Flags().Uint32Var(&accountNumber, "account", 0, "BIP44 account number")
	return cmd
}

// assetFromId builds minimal asset metadata from an asset id string.  The
// CLI has no token registry; precision defaults to 18 and can be overridden
// with an @decimals suffix, e.g. ethereum/erc20:0x...@6.
func assetFromId(raw string) (ck.Asset, error) {
	precision := int32(18)
	if at := strings.LastIndexByte(raw, '@'); at >= 0 {
		var parsed int
		if _, err := fmt.Sscanf(raw[at+1:], "%d", &parsed); err != nil {
			return ck.Asset{}, fmt.Errorf("invalid decimals suffix in %q", raw)
		}
		precision = int32(parsed)
		raw = raw[:at]
	}
	assetId, err := ck.ParseAssetId(raw)
	if err != nil {
		return ck.Asset{}, err
	}
	return ck.Asset{AssetId: assetId, Precision: precision}, nil
}

func CmdSend() *cobra.Command {
	var to string
	var value string
	var sendMax bool
	var accountNumber uint32
	var purpose uint32
	var contract string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build, sign, and broadcast a transfer",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := chainAdapterFromFlags(cmd)
			if err != nil {
				return err
			}
			signer, err := signerFromEnv()
			if err != nil {
				return err
			}
			input := adapter.BuildSendTxInput{
				To:            ck.Address(to),
				Value:         ck.NewAmountBlockchainFromStr(value),
				Signer:        signer,
				SendMax:       sendMax,
				Purpose:       ck.Purpose(purpose),
				AccountNumber: accountNumber,
			}
			if contract != "" {
				input.Evm = &adapter.EvmTxOptions{
					Erc20ContractAddress: ck.ContractAddress(contract),
				}
			}
			tx, err := a.BuildSendTransaction(cmd.Context(), input)
			if err != nil {
				return err
			}
			hash, err := a.SignAndBroadcastTransaction(cmd.Context(), adapter.SignTxInput{
				Tx:            tx,
				Signer:        signer,
				Purpose:       ck.Purpose(purpose),
				AccountNumber: accountNumber,
			})
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVar(&value, "value", "", "amount in base units")
	cmd.Flags().BoolVar(&sendMax, "send-max", false, "send the full spendable balance")
	cmd.Flags().Uint32Var(&accountNumber, "account", 0, "BIP44 account number")
	cmd.Flags().Uint32Var(&purpose, "purpose", 0, "BIP44 purpose override")
	cmd.Flags().StringVar(&contract, "contract", "", "ERC-20 contract for token sends")
	return cmd
}
