package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/spf13/cobra"

	"github.com/stefando/ingestGatewayAWS/internal/auth"
	"github.com/stefando/ingestGatewayAWS/internal/client"
)

const uploadTimeout = 5 * time.Minute

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Upload every file in a folder as one batch",
		Long: `Request an upload credential for each file in --dir (name order) and post the
file to storage. Only the last file carries is_last=True. Uploaded files are removed
unless --keep is set.

Set --username to log in through Cognito first. The password is read from
INGEST_PASSWORD when --password is empty.`,
		Args: cobra.NoArgs,
		RunE: runSend,
	}
	cmd.Flags().String("endpoint", "", "presigned-urls endpoint URL (required)")
	cmd.Flags().String("dir", ".", "Folder with the files to send")
	cmd.Flags().String("tenant", "", "Tenant ID")
	cmd.Flags().String("source", "", "Source system")
	cmd.Flags().String("api-key", os.Getenv("INGEST_API_KEY"), "API key sent as x-api-key")
	cmd.Flags().Bool("keep", false, "Keep local files after upload")
	cmd.Flags().String("username", "", "Cognito username")
	cmd.Flags().String("password", "", "Cognito password")
	cmd.Flags().String("stack", "", "Stack name used to discover the tenant's Cognito pool (default from config)")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	endpoint, _ := flags.GetString("endpoint")
	dir, _ := flags.GetString("dir")
	tenant, _ := flags.GetString("tenant")
	source, _ := flags.GetString("source")
	apiKey, _ := flags.GetString("api-key")
	keep, _ := flags.GetBool("keep")
	username, _ := flags.GetString("username")

	ctx := cmd.Context()

	var token string
	if username != "" {
		password, _ := flags.GetString("password")
		if password == "" {
			password = os.Getenv("INGEST_PASSWORD")
		}
		stack, _ := flags.GetString("stack")
		if stack == "" {
			stack = cfg.StackName
		}

		awsCfg, err := awsConfig(ctx)
		if err != nil {
			return err
		}
		login := auth.NewLoginService(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.CognitoClientID, stack)
		resp, err := login.Authenticate(ctx, &auth.LoginRequest{Tenant: tenant, Username: username, Password: password})
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		token = resp.IDToken
	}

	sender := client.NewSender(client.Config{
		Endpoint:     endpoint,
		TenantID:     tenant,
		SourceSystem: source,
		APIKey:       apiKey,
		Token:        token,
		Keep:         keep,
	}, &http.Client{Timeout: uploadTimeout}, logger)

	report, err := sender.SendDir(ctx, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "batch %s: %d file(s)\n", report.BatchID, len(report.Files))
	for _, f := range report.Files {
		status := "ok"
		if f.Err != nil {
			status = "FAILED: " + f.Err.Error()
		}
		fmt.Fprintf(out, "  %-40s last=%-5t %s\n", f.Name, f.IsLast, status)
	}
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(report.Files))
	}
	return nil
}
