/*
 * Copyright (c) 2019 OysterPack, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// version is set at build time, e.g., -ldflags "-X main.version=1.2.3"
var version = "0.1.0"

func newVersionCmd() *cobra.Command {
	var constraint string
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Prints the probectl version",
		Args:  cobra.NoArgs,
		// the version command does not need the config to be loaded
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := buildVersion()
			if err != nil {
				return err
			}
			if constraint != "" {
				c, err := semver.NewConstraint(constraint)
				if err != nil {
					return errors.Wrap(err, "invalid --check constraint")
				}
				if ok, errs := c.Validate(v); !ok {
					return errors.Errorf("version %s does not satisfy %q: %v", v, constraint, errs)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "probectl v%s\n", v)
			return nil
		},
	}
	versionCmd.Flags().StringVar(&constraint, "check", "", "fails if the version does not satisfy the semver constraint, e.g., '>= 0.1'")
	return versionCmd
}

func buildVersion() (*semver.Version, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid build version: %q", version)
	}
	return v, nil
}
