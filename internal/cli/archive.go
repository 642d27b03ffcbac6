package cli

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/stefando/ingestGatewayAWS/internal/rawdata"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Copy a tenant's raw data to history and the data catalog",
		Args:  cobra.NoArgs,
		RunE:  runArchive,
	}
	cmd.Flags().String("tenant", "", "Tenant ID (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func runArchive(cmd *cobra.Command, args []string) error {
	tenant, _ := cmd.Flags().GetString("tenant")
	if cfg.Bucket == "" {
		return fmt.Errorf("S3_TARGET_BUCKET is not set")
	}

	awsCfg, err := awsConfig(cmd.Context())
	if err != nil {
		return err
	}
	archiver := rawdata.NewArchiver(s3.NewFromConfig(awsCfg), cfg.Bucket, logger)
	res, err := archiver.Archive(cmd.Context(), tenant)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "archived %d object(s) at %s\n", len(res.Copies), res.Timestamp)
	return nil
}
