// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/annchain/blockdemo/chain"
	"github.com/annchain/blockdemo/common/goroutine"
	"github.com/annchain/blockdemo/core"
	"github.com/annchain/blockdemo/ledger"
	"github.com/annchain/blockdemo/miner"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// chainCmd edits the chain stored under {root}/data without a running node.
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Inspect and edit the stored chain",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ensureFolder()
		readConfig()
		// keep stdout clean for command output
		initLogger(os.Stderr)
	},
}

var chainAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a block",
	Args:  cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, l *ledger.Ledger) error {
		if _, err := l.Add(); err != nil {
			return err
		}
		printChain(cmd.OutOrStdout(), l.View())
		return nil
	}),
}

var chainDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the last block",
	Args:  cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, l *ledger.Ledger) error {
		if _, err := l.Delete(); err != nil {
			return err
		}
		printChain(cmd.OutOrStdout(), l.View())
		return nil
	}),
}

var chainDataCmd = &cobra.Command{
	Use:   "data <index> <text>",
	Short: "Replace the data of a block",
	Args:  cobra.ExactArgs(2),
	RunE: withLedger(func(cmd *cobra.Command, args []string, l *ledger.Ledger) error {
		b, err := blockAt(l, args[0])
		if err != nil {
			return err
		}
		if _, err = l.SetData(b.ID, args[1]); err != nil {
			return err
		}
		printChain(cmd.OutOrStdout(), l.View())
		return nil
	}),
}

var chainMineCmd = &cobra.Command{
	Use:   "mine <index>",
	Short: "Mine a block",
	Args:  cobra.ExactArgs(1),
	RunE: withLedger(func(cmd *cobra.Command, args []string, l *ledger.Ledger) error {
		b, err := blockAt(l, args[0])
		if err != nil {
			return err
		}
		ctx, cancel := interruptContext()
		defer cancel()

		_, result, err := l.Mine(ctx, b.ID)
		switch err {
		case nil:
			fmt.Fprintf(cmd.OutOrStdout(), "mined block #%d in %d attempts\n", b.Index, result.Attempts)
		case miner.ErrAttemptsExhausted:
			logrus.WithField("attempts", result.Attempts).Warn("mining incomplete, run mine again to resume")
			fmt.Fprintf(cmd.OutOrStdout(), "mining incomplete for block #%d after %d attempts\n", b.Index, result.Attempts)
		default:
			return err
		}
		printChain(cmd.OutOrStdout(), l.View())
		return nil
	}),
}

var chainShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the chain",
	Args:  cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, l *ledger.Ledger) error {
		printChain(cmd.OutOrStdout(), l.View())
		return nil
	}),
}

var chainExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the chain view as json or yaml",
	Args:  cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, l *ledger.Ledger) error {
		format, _ := cmd.Flags().GetString("format")
		b, err := exportChain(l.View(), format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	}),
}

var chainVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute every hash and report mismatches",
	Args:  cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, l *ledger.Ledger) error {
		faults := l.Verify()
		for _, f := range faults {
			fmt.Fprintln(cmd.OutOrStdout(), f.String())
		}
		if len(faults) != 0 {
			return fmt.Errorf("chain has %d faults", len(faults))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "chain is consistent")
		return nil
	}),
}

func init() {
	chainExportCmd.Flags().String("format", "json", "Export format, json or yaml")

	chainCmd.AddCommand(chainAddCmd, chainDeleteCmd, chainDataCmd, chainMineCmd,
		chainShowCmd, chainExportCmd, chainVerifyCmd)
	rootCmd.AddCommand(chainCmd)
}

// withLedger opens the stored chain for one command and closes it afterwards.
func withLedger(f func(cmd *cobra.Command, args []string, l *ledger.Ledger) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		config, err := core.NodeConfigFromViper(folderOf(DataDir))
		if err != nil {
			return err
		}
		config.Persist = true
		l, err := core.NewLedger(config)
		if err != nil {
			return errors.Wrap(err, "open chain")
		}
		defer l.Stop()
		return f(cmd, args, l)
	}
}

// blockAt resolves a 1-based index argument.
func blockAt(l *ledger.Ledger, arg string) (chain.Block, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return chain.Block{}, errors.Wrapf(err, "bad block index %q", arg)
	}
	return l.Snapshot().At(index)
}

// interruptContext is cancelled by SIGINT or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	goroutine.WithRecover(func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			logrus.Warn("interrupted, cancelling")
			cancel()
		case <-ctx.Done():
		}
	})
	return ctx, cancel
}

func printChain(w io.Writer, view ledger.ChainView) {
	fmt.Fprintln(w, view.Title)
	for _, b := range view.Blocks {
		fmt.Fprintf(w, "#%d [%s] state=%s nonce=%d\n", b.Index, b.Label, b.State, b.Nonce)
		fmt.Fprintf(w, "    data: %q\n", b.Data)
		fmt.Fprintf(w, "    prev: %s\n", b.PreviousHash)
		fmt.Fprintf(w, "    hash: %s\n", b.Hash)
	}
}

func exportChain(view ledger.ChainView, format string) ([]byte, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "yaml", "yml":
		return yaml.Marshal(view)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
