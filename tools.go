package main

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/coder"
	"github.com/iqbalbaharum/constant-product-pool/internal/feed"
	"github.com/iqbalbaharum/constant-product-pool/internal/instructions"
	"github.com/iqbalbaharum/constant-product-pool/internal/liquidity"
	"github.com/iqbalbaharum/constant-product-pool/internal/rpc"
)

func runDerive(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	authority, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("authority: %w", err)
	}

	keys, err := liquidity.DerivePoolKeys(cfg.ProgramID, authority)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "program      %s\n", keys.ProgramID)
	fmt.Fprintf(out, "authority    %s\n", keys.Authority)
	fmt.Fprintf(out, "state        %s (bump %d)\n", keys.State, keys.StateBump)
	fmt.Fprintf(out, "mint         %s (bump %d)\n", keys.Mint, keys.MintBump)
	fmt.Fprintf(out, "token pool   %s (bump %d)\n", keys.TokenPool, keys.TokenPoolBump)
	fmt.Fprintf(out, "native pool  %s (bump %d)\n", keys.NativePool, keys.NativePoolBump)

	if raw, _ := cmd.Flags().GetString("customer"); raw != "" {
		customer, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return fmt.Errorf("customer: %w", err)
		}
		account, err := liquidity.CustomerTokenAccount(customer, keys.Mint)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "customer ata %s\n", account)
	}

	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	flags := cmd.Flags()
	amount, err := decimalFlag(cmd, "amount")
	if err != nil {
		return err
	}

	var payload coder.PoolInstruction
	switch args[0] {
	case "initialize":
		supply, err := decimalFlag(cmd, "supply")
		if err != nil {
			return err
		}
		decimals, _ := flags.GetUint8("decimals")
		payload = coder.Initialize{TotalSupply: *supply, Decimals: decimals, InitialQuoteAmount: *amount}
	case "buy":
		payload = coder.Buy{QuoteAmount: *amount}
	case "sell":
		payload = coder.Sell{BaseAmount: *amount}
	}

	data, err := coder.NewPoolInstructionCoder().Encode(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "data %s\n", base58.Encode(data))

	rawAuthority, _ := flags.GetString("authority")
	rawPayer, _ := flags.GetString("payer")
	if rawAuthority == "" || rawPayer == "" {
		return nil
	}

	authority, err := solana.PublicKeyFromBase58(rawAuthority)
	if err != nil {
		return fmt.Errorf("authority: %w", err)
	}
	payer, err := solana.PrivateKeyFromBase58(rawPayer)
	if err != nil {
		return fmt.Errorf("payer: %w", err)
	}

	var ix *instructions.PoolInstruction
	if args[0] == "initialize" {
		keys, err := liquidity.DerivePoolKeys(cfg.ProgramID, authority)
		if err != nil {
			return err
		}
		initialize := payload.(coder.Initialize)
		ix = instructions.MakeInitializePoolInstruction(&instructions.InitializePoolInstructionParams{
			PoolKeys:           keys,
			TotalSupply:        initialize.TotalSupply,
			Decimals:           initialize.Decimals,
			InitialQuoteAmount: initialize.InitialQuoteAmount,
		})
	} else {
		rawBeneficiary, _ := flags.GetString("beneficiary")
		beneficiary, err := solana.PublicKeyFromBase58(rawBeneficiary)
		if err != nil {
			return fmt.Errorf("beneficiary: %w", err)
		}
		params, err := instructions.NewTradeParams(cfg.ProgramID, authority, beneficiary, payer.PublicKey(), amount)
		if err != nil {
			return err
		}
		if args[0] == "buy" {
			ix = instructions.MakeBuyInstruction(params)
		} else {
			ix = instructions.MakeSellInstruction(params)
		}
	}

	rpcURL, _ := flags.GetString("rpc-url")
	var cluster *rpc.Client
	if rpcURL != "" {
		cluster = rpc.New(rpcURL)
	}

	var blockhash solana.Hash
	if raw, _ := flags.GetString("blockhash"); raw != "" {
		if blockhash, err = solana.HashFromBase58(raw); err != nil {
			return fmt.Errorf("blockhash: %w", err)
		}
	} else if cluster != nil {
		if blockhash, err = cluster.LatestBlockhash(cmd.Context()); err != nil {
			return err
		}
	}
	units, _ := flags.GetUint32("compute-units")
	price, _ := flags.GetUint64("compute-price")

	signatures, tx, err := instructions.MakeTransaction(payer,
		instructions.ComputeUnit{Units: units, MicroLamports: price},
		instructions.TxOption{Blockhash: blockhash},
		ix)
	if err != nil {
		return err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "signature %s\n", signatures[0])
	fmt.Fprintf(cmd.OutOrStdout(), "transaction %s\n", base64.StdEncoding.EncodeToString(raw))

	if send, _ := flags.GetBool("send"); send {
		if cluster == nil {
			return fmt.Errorf("--send requires --rpc-url")
		}
		signature, err := cluster.SendTransaction(cmd.Context(), tx)
		if err != nil {
			return fmt.Errorf("send transaction: %w", err)
		}
		logger.Info("transaction sent", zap.Stringer("signature", signature))
	}

	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	authority, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("authority: %w", err)
	}
	keys, err := liquidity.DerivePoolKeys(cfg.ProgramID, authority)
	if err != nil {
		return err
	}

	rpcURL, _ := cmd.Flags().GetString("rpc-url")
	state, err := rpc.New(rpcURL).PoolState(cmd.Context(), keys.State)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state          %s\n", keys.State)
	fmt.Fprintf(out, "authority      %s\n", state.Authority)
	fmt.Fprintf(out, "mint authority %s\n", state.MintAuthority)
	fmt.Fprintf(out, "base pool      %s\n", state.BasePoolAuthority)
	fmt.Fprintf(out, "quote pool     %s\n", state.QuotePoolAuthority)
	fmt.Fprintf(out, "base reserve   %s\n", state.Balance.Base.Dec())
	fmt.Fprintf(out, "quote reserve  %s\n", state.Balance.Quote.Dec())

	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := base58.Decode(args[0])
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	ix, err := coder.NewPoolInstructionCoder().Decode(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch ix := ix.(type) {
	case coder.Initialize:
		fmt.Fprintf(out, "initialize supply=%s decimals=%d initial_quote=%s\n", ix.TotalSupply.Dec(), ix.Decimals, ix.InitialQuoteAmount.Dec())
	case coder.Buy:
		fmt.Fprintf(out, "buy quote=%s\n", ix.QuoteAmount.Dec())
	case coder.Sell:
		fmt.Fprintf(out, "sell base=%s\n", ix.BaseAmount.Dec())
	}

	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	_, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	url, _ := cmd.Flags().GetString("url")
	client, err := feed.NewClient(url, nil, logger)
	if err != nil {
		return fmt.Errorf("connect feed: %w", err)
	}
	defer client.Close()

	logger.Info("watching trades", zap.String("url", url))
	for trade := range client.Trades() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s quote=%s base=%s fee=%s customer=%s\n",
			trade.Action, trade.Pool, trade.QuoteAmount, trade.BaseAmount, trade.Fee, trade.Customer)
	}

	return nil
}

func decimalFlag(cmd *cobra.Command, name string) (*uint256.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	value, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}
