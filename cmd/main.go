package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	flagCfg       = "cfg"
	flagNetwork   = "network"
	flagSnapshot  = "snapshot"
	flagTxid      = "txid"
	flagVout      = "vout"
	flagAddress   = "address"
	flagCount     = "count"
	flagRecipient = "recipient"
	flagWIF       = "wif"
	flagContract  = "contract"
	flagChainID   = "chainid"
)

const (
	// App name
	appName = "chi-claim"
	// version represents the program based on the git tag
	version = "v0.1.0"
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Version = version
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     flagCfg,
			Aliases:  []string{"c"},
			Usage:    "Configuration `FILE`",
			Required: false,
		},
		&cli.StringFlag{
			Name:     flagNetwork,
			Aliases:  []string{"n"},
			Usage:    "Network: local. Any other deployment configures the [NetworkConfig] section instead",
			Required: false,
		},
	}
	snapshotFlag := &cli.StringFlag{
		Name:     flagSnapshot,
		Aliases:  []string{"s"},
		Usage:    "UTXO snapshot dump in CSV `FILE` format; - reads from stdin",
		Value:    "-",
		Required: false,
	}
	outputFlags := []cli.Flag{
		snapshotFlag,
		&cli.StringFlag{
			Name:     flagTxid,
			Usage:    "TXID of the output to look up",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     flagVout,
			Usage:    "vout of the output to look up",
			Required: true,
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "version",
			Usage:  "Application version and build",
			Action: versionCmd,
		},
		{
			Name:   "run",
			Usage:  "Run the chi claim service",
			Action: start,
			Flags:  flags,
		},
		{
			Name:  "snapshot",
			Usage: "Tools operating on the UTXO snapshot dump",
			Subcommands: []*cli.Command{
				{
					Name:   "compute-root",
					Usage:  "Compute the Merkle root committing to the snapshot",
					Action: computeRoot,
					Flags:  []cli.Flag{snapshotFlag},
				},
				{
					Name:   "prove",
					Usage:  "Look up an output and print its Merkle proof",
					Action: proveOutput,
					Flags:  outputFlags,
				},
				{
					Name:   "lookup-address",
					Usage:  "List the snapshot outputs held by an address",
					Action: lookupAddress,
					Flags: []cli.Flag{
						snapshotFlag,
						&cli.StringFlag{
							Name:     flagAddress,
							Usage:    "Legacy chain address to look up",
							Required: true,
						},
					},
				},
				{
					Name:   "top-addresses",
					Usage:  "List the largest address balances in the snapshot",
					Action: topAddresses,
					Flags: []cli.Flag{
						snapshotFlag,
						&cli.IntFlag{
							Name:  flagCount,
							Usage: "Number of addresses to list",
							Value: 20, //nolint:gomnd
						},
					},
				},
				{
					Name:   "sign-claim",
					Usage:  "Sign the claim for an output with a legacy private key",
					Action: signClaim,
					Flags: append(outputFlags,
						&cli.StringFlag{
							Name:     flagRecipient,
							Usage:    "Recipient address for the claimed tokens",
							Required: true,
						},
						&cli.StringFlag{
							Name:     flagWIF,
							Usage:    "Legacy private key for the output in WIF",
							Required: true,
						},
						&cli.StringFlag{
							Name:     flagContract,
							Usage:    "Address of the claim contract deployment",
							Required: true,
						},
						&cli.Uint64Flag{
							Name:     flagChainID,
							Usage:    "EVM chain ID for the EIP-712 signature",
							Required: true,
						},
					),
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Printf("\nError: %v\n", err)
		os.Exit(1)
	}
}
