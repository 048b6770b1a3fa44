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
	"errors"
	"os"

	"github.com/blinklabs-io/metavault/internal/config"
	"github.com/blinklabs-io/metavault/internal/sops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and protect configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			out := *cfg
			if out.RedisPassword != "" {
				out.RedisPassword = "REDACTED"
			}
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(&out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a config file in place with sops",
		Args:  cobra.ExactArgs(1),
		// The file may be the config itself
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(_ *cobra.Command, args []string) error {
			return rewrite(args[0], sops.Encrypt)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:              "decrypt <file>",
		Short:            "Print a sops encrypted config file in plain text",
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			plain, err := sops.Decrypt(data)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(plain)
			return err
		},
	})
	return cmd
}

func rewrite(path string, fn func([]byte) ([]byte, error)) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := fn(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, info.Mode().Perm())
}
