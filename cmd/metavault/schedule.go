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
	"strconv"
	"time"

	"github.com/blinklabs-io/metavault"
	"github.com/blinklabs-io/metavault/internal/units"
	"github.com/spf13/cobra"
)

func scheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage vesting schedules",
	}
	cmd.AddCommand(scheduleCreateCommand())
	cmd.AddCommand(scheduleClaimCommand())
	cmd.AddCommand(scheduleShowCommand())
	return cmd
}

// parseCliff accepts RFC3339 or unix seconds
func parseCliff(value string) (int64, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.Unix(), nil
	}
	ret, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cliff %q: use RFC3339 or unix seconds", value)
	}
	return ret, nil
}

func scheduleCreateCommand() *cobra.Command {
	var from, beneficiary, amount, cliff string
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a vesting schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := parseAddress("from", from)
			if err != nil {
				return err
			}
			to, err := parseAddress("beneficiary", beneficiary)
			if err != nil {
				return err
			}
			total, err := units.Parse(amount)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			cliffTs, err := parseCliff(cliff)
			if err != nil {
				return err
			}
			if duration < time.Second {
				return fmt.Errorf("invalid duration %s: must be at least 1s", duration)
			}
			return withNode(cmd, func(n *metavault.Node) error {
				id, err := n.CreateSchedule(
					cmd.Context(),
					caller,
					to,
					cliffTs,
					uint64(duration/time.Second),
					total,
				)
				if err != nil {
					return err
				}
				return printJSON(map[string]uint64{"id": id})
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "caller address (vault admin)")
	cmd.Flags().StringVar(&beneficiary, "beneficiary", "", "beneficiary address")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in tokens")
	cmd.Flags().StringVar(&cliff, "cliff", "", "cliff time, RFC3339 or unix seconds")
	cmd.Flags().DurationVar(&duration, "duration", 0, "release duration after the cliff")
	for _, name := range []string{"from", "beneficiary", "amount", "cliff", "duration"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func scheduleClaimCommand() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim vested tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid schedule id: %w", err)
			}
			caller, err := parseAddress("from", from)
			if err != nil {
				return err
			}
			return withNode(cmd, func(n *metavault.Node) error {
				amount, err := n.ClaimVested(cmd.Context(), caller, id)
				if err != nil {
					return err
				}
				return printJSON(map[string]string{
					"amount":       amount.Dec(),
					"amountTokens": units.Format(amount),
				})
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "beneficiary address")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func scheduleShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a vesting schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid schedule id: %w", err)
			}
			return withNode(cmd, func(n *metavault.Node) error {
				schedule, err := n.Schedule(id)
				if err != nil {
					return err
				}
				claimable, err := n.Claimable(id)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"id":          schedule.ID,
					"beneficiary": schedule.Beneficiary.Hex(),
					"cliff":       time.Unix(schedule.Cliff, 0).UTC().Format(time.RFC3339),
					"duration":    (time.Duration(schedule.Duration) * time.Second).String(), //nolint:gosec
					"total":       units.Format(schedule.TotalAmount),
					"claimed":     units.Format(schedule.ClaimedAmount),
					"claimable":   units.Format(claimable),
				})
			})
		},
	}
}
