package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rxtech-lab/actionkeeper/internal/utils"
	"github.com/spf13/cobra"
)

type cli struct {
	jsonOutput bool
	out        io.Writer
}

type hashResult struct {
	Hash        string `json:"hash"`
	HashVersion string `json:"hash_version"`
	Canonical   string `json:"canonical,omitempty"`
}

type verifyResult struct {
	Valid        bool   `json:"valid"`
	ComputedHash string `json:"computed_hash"`
	ExpectedHash string `json:"expected_hash"`
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "akctl",
		Short: "akctl - ActionKeeper admin tool",
		Long: `akctl works with agreement hash projections offline. It computes the canonical
digest of a projection file, checks a digest against one, and builds the public
verification link for an agreement.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.out = cmd.OutOrStdout()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(c.hashCmd(), c.verifyCmd(), c.verifyURLCmd())
	return rootCmd
}

func (c *cli) hashCmd() *cobra.Command {
	var showCanonical bool
	cmd := &cobra.Command{
		Use:   "hash <projection.json>",
		Short: "Print the canonical hash of a projection file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readProjection(args[0])
			if err != nil {
				return err
			}
			hash, err := utils.ComputeAgreementHash(data)
			if err != nil {
				return fmt.Errorf("hash projection: %w", err)
			}

			result := hashResult{Hash: hash, HashVersion: utils.HashVersion}
			if showCanonical {
				if result.Canonical, err = utils.CanonicalJSON(data); err != nil {
					return fmt.Errorf("canonicalize projection: %w", err)
				}
			}
			if c.jsonOutput {
				return c.outputJSON(result)
			}
			if showCanonical {
				fmt.Fprintln(c.out, result.Canonical)
			}
			fmt.Fprintln(c.out, result.Hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showCanonical, "canonical", false, "also print the canonical JSON")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <projection.json> <hash>",
		Short: "Check a hash against a projection file",
		Long:  "Recomputes the canonical hash of the projection and exits non-zero when it does not match.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readProjection(args[0])
			if err != nil {
				return err
			}
			computed, err := utils.ComputeAgreementHash(data)
			if err != nil {
				return fmt.Errorf("hash projection: %w", err)
			}

			expected := strings.ToLower(strings.TrimSpace(args[1]))
			result := verifyResult{Valid: computed == expected, ComputedHash: computed, ExpectedHash: expected}
			if c.jsonOutput {
				if err := c.outputJSON(result); err != nil {
					return err
				}
			} else if result.Valid {
				fmt.Fprintln(c.out, "valid")
			}
			if !result.Valid {
				return fmt.Errorf("hash mismatch: computed %s, expected %s", computed, expected)
			}
			return nil
		},
	}
}

func (c *cli) verifyURLCmd() *cobra.Command {
	var id, hash, base string
	cmd := &cobra.Command{
		Use:   "verify-url",
		Short: "Print the public verification link for an agreement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if base == "" {
				var err error
				if base, err = utils.GetVerifyBaseURL(8080); err != nil {
					return err
				}
			}
			link := utils.BuildVerificationURL(id, hash, base)
			if c.jsonOutput {
				return c.outputJSON(map[string]string{"verification_url": link})
			}
			fmt.Fprintln(c.out, link)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "agreement id")
	cmd.Flags().StringVar(&hash, "hash", "", "agreement hash")
	cmd.Flags().StringVar(&base, "base", "", "verification base URL (defaults to VERIFY_BASE_URL, then BASE_URL)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("hash")
	return cmd
}

func (c *cli) outputJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readProjection decodes a JSON object keeping numbers exact.
func readProjection(path string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projection: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data map[string]interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse projection %s: %w", path, err)
	}
	if data == nil {
		return nil, fmt.Errorf("projection %s must be a JSON object", path)
	}
	return data, nil
}
