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
	"fmt"

	"github.com/blinklabs-io/metavault"
	"github.com/blinklabs-io/metavault/internal/units"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

func crateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crate",
		Short: "Open loot crates and mint items",
	}
	cmd.AddCommand(crateOpenCommand())
	cmd.AddCommand(crateMintBatchCommand())
	cmd.AddCommand(crateCategoriesCommand())
	return cmd
}

func crateOpenCommand() *cobra.Command {
	var from, payment string
	var count uint64
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open one or more crates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := parseAddress("from", from)
			if err != nil {
				return err
			}
			return withNode(cmd, func(n *metavault.Node) error {
				var paid *uint256.Int
				if payment != "" {
					paid, err = units.Parse(payment)
					if err != nil {
						return fmt.Errorf("invalid payment: %w", err)
					}
				} else {
					// Pay exactly price * count
					price, err := n.CratePrice()
					if err != nil {
						return err
					}
					var overflow bool
					paid, overflow = new(uint256.Int).MulOverflow(price, uint256.NewInt(count))
					if overflow {
						return fmt.Errorf("payment for %d crates overflows", count)
					}
				}
				items, err := n.OpenCrate(cmd.Context(), caller, count, paid)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "buyer address")
	cmd.Flags().Uint64Var(&count, "count", 1, "number of crates")
	cmd.Flags().StringVar(&payment, "payment", "", "payment in ether, defaults to the exact price")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func crateMintBatchCommand() *cobra.Command {
	var from, to string
	var ids, amounts []uint
	cmd := &cobra.Command{
		Use:   "mint-batch",
		Short: "Mint items directly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := parseAddress("from", from)
			if err != nil {
				return err
			}
			recipient, err := parseAddress("to", to)
			if err != nil {
				return err
			}
			return withNode(cmd, func(n *metavault.Node) error {
				return n.MintItems(
					cmd.Context(),
					caller,
					recipient,
					toUint64s(ids),
					toUint64s(amounts),
				)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "minter address")
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().UintSliceVar(&ids, "ids", nil, "category ids, comma separated")
	cmd.Flags().UintSliceVar(&amounts, "amounts", nil, "amounts, comma separated")
	for _, name := range []string{"from", "to", "ids", "amounts"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func toUint64s(in []uint) []uint64 {
	ret := make([]uint64, len(in))
	for idx, v := range in {
		ret[idx] = uint64(v)
	}
	return ret
}

func crateCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show crate price and category supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNode(cmd, func(n *metavault.Node) error {
				price, err := n.CratePrice()
				if err != nil {
					return err
				}
				categories, err := n.CrateCategories()
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"price":      units.Format(price),
					"categories": categories,
				})
			})
		},
	}
}
