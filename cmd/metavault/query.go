// Copyright 2025 Blink Labs Software
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

package main

import (
	"encoding/hex"

	"github.com/blinklabs-io/metavault"
	"github.com/blinklabs-io/metavault/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show token and item balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAddress("account", args[0])
			if err != nil {
				return err
			}
			return withNode(cmd, func(n *metavault.Node) error {
				balance, err := n.TokenBalance(account)
				if err != nil {
					return err
				}
				items, err := n.ItemBalances(account)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"address": account.Hex(),
					"tokens":  units.Format(balance),
					"items":   items,
				})
			})
		},
	}
}

func receiptsCommand() *cobra.Command {
	var from uint64
	var limit int
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "List journal receipts and verify the hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNode(cmd, func(n *metavault.Node) error {
				if err := n.Database().VerifyJournal(); err != nil {
					return err
				}
				receipts, err := n.Receipts(from, limit)
				if err != nil {
					return err
				}
				out := make([]map[string]any, 0, len(receipts))
				for _, r := range receipts {
					out = append(out, map[string]any{
						"seq":       r.Seq,
						"op":        r.Op,
						"caller":    common.BytesToAddress(r.Caller).Hex(),
						"timestamp": r.Timestamp,
						"hash":      "0x" + hex.EncodeToString(r.Hash),
					})
				}
				return printJSON(out)
			})
		},
	}
	cmd.Flags().Uint64Var(&from, "from-seq", 0, "first sequence number")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum receipts, 0 for all")
	return cmd
}
