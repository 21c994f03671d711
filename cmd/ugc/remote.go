// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ugc/internal/client"
	"github.com/pdiddy/ugc/internal/secrets"
	"github.com/pdiddy/ugc/pkg/types"
)

var remoteCmd = &cobra.Command{
	Use:   "remote [files...]",
	Short: "Convert files on a running ugc service",
	Long: `Remote uploads the given files to a ugc service in one request, then
downloads each converted file into --output-dir, one after another.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemote,
}

func init() {
	remoteCmd.Flags().String("server", "http://localhost:3000", "base URL of the ugc service")
	remoteCmd.Flags().StringP("format", "f", "", "target format (default png)")
	remoteCmd.Flags().StringP("output-dir", "o", ".", "directory for downloaded files")
	remoteCmd.Flags().String("token", "", "bearer token (default: .secrets/ugc-api-token)")
	remoteCmd.Flags().Int("retries", 0, "retries on HTTP 429 (default 5)")

	rootCmd.AddCommand(remoteCmd)
}

func runRemote(cmd *cobra.Command, args []string) error {
	serverURL, _ := cmd.Flags().GetString("server")
	outDir, _ := cmd.Flags().GetString("output-dir")
	flagToken, _ := cmd.Flags().GetString("token")
	retries, _ := cmd.Flags().GetInt("retries")

	formatName, _ := cmd.Flags().GetString("format")
	if formatName == "" {
		formatName = viper.GetString("convert.format")
	}
	format, err := types.ParseTargetFormat(formatName)
	if err != nil {
		return err
	}

	token, err := secrets.APIToken(secrets.DefaultDir, flagToken)
	if err != nil {
		return err
	}

	c, err := client.New(serverURL, client.WithToken(token), client.WithMaxRetries(retries))
	if err != nil {
		return err
	}

	ctx := logger.WithContext(cmd.Context())
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	info(out, "Uploading %d file(s) to %s", len(args), serverURL)

	paths, resp, errs := c.ConvertAndDownload(ctx, args, format, outDir)
	if resp.Summary.Total == 0 && len(errs) > 0 {
		return errs[0]
	}

	for _, p := range paths {
		success(out, "%s", filepath.Clean(p))
	}
	for _, msg := range resp.Summary.ErrorLog {
		failure(errOut, "%s", msg)
	}
	for _, err := range errs {
		failure(errOut, "%v", err)
	}
	printSummary(out, resp.Summary)

	if resp.Summary.HasFailures() || len(errs) > 0 {
		return fmt.Errorf("%d conversion(s) and %d download(s) failed", resp.Summary.Errors, len(errs))
	}
	return nil
}

