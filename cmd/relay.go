package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"playground/internal/expense"
	"playground/internal/logger"
	"playground/internal/relay"
	"playground/internal/sheets"
	"playground/pkg/models"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Download an object from S3 and forward it to an HTTP API",
	Long: `Fetch one object from an S3 bucket and POST it to an API as multipart/form-data.

The upload carries the object under the "file" field and the four metadata
fields amount, date (YYYYMMDD), seller and item. The result is printed as JSON:
{"status_code": ..., "response": ...} on success or {"error": "..."} on failure.

AWS credentials are read from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
Set RELAY_DEFAULT_CREDENTIALS=true to also accept the AWS default credential
chain (shared config, SSO, instance roles).

With --extract, empty metadata fields are filled from the document: first with
the Google Document AI expense parser (when DOCUMENT_AI_PROCESSOR_ID is set),
then with OCR and ChatGPT (when OPENAI_API_KEY is set).`,
	Example: `  # Relay a receipt with explicit metadata
  playground relay --bucket receipts --key 2025/08/r1.png \
    --amount 12200 --date 20250807 --seller "Coffee Bean" --item Americano \
    --url https://api.example.com/upload

  # Fill missing metadata from the receipt and log the transfer
  playground relay --bucket receipts --key 2025/08/r1.png --extract --sheet`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().String("key", "", "Object key in the bucket")
	relayCmd.Flags().String("bucket", "", "S3 bucket name")
	relayCmd.Flags().String("amount", "", "Amount field")
	relayCmd.Flags().String("date", "", "Date field (YYYYMMDD)")
	relayCmd.Flags().String("seller", "", "Seller field")
	relayCmd.Flags().String("item", "", "Item field")
	relayCmd.Flags().String("url", "", "Destination API URL (default: RELAY_API_URL)")
	relayCmd.Flags().String("region", "", "AWS region (default: AWS_REGION or ap-northeast-2)")
	relayCmd.Flags().Bool("extract", false, "Fill empty metadata fields from the document")
	relayCmd.Flags().Bool("sheet", false, "Append the transfer to the Google Sheet ledger")

	_ = relayCmd.MarkFlagRequired("key")
	_ = relayCmd.MarkFlagRequired("bucket")
}

func runRelay(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("relay")

	key, _ := cmd.Flags().GetString("key")
	bucket, _ := cmd.Flags().GetString("bucket")
	amount, _ := cmd.Flags().GetString("amount")
	date, _ := cmd.Flags().GetString("date")
	seller, _ := cmd.Flags().GetString("seller")
	item, _ := cmd.Flags().GetString("item")
	url, _ := cmd.Flags().GetString("url")
	region, _ := cmd.Flags().GetString("region")
	extract, _ := cmd.Flags().GetBool("extract")
	toSheet, _ := cmd.Flags().GetBool("sheet")

	if url == "" {
		url = cfg.RelayAPIURL
	}
	if url == "" {
		return fmt.Errorf("destination URL is required: pass --url or set RELAY_API_URL")
	}
	if region == "" {
		region = cfg.AWSRegion
	}

	req := relay.Request{
		Key:             key,
		Bucket:          bucket,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          region,
		URL:             url,
		Metadata: models.TransferMetadata{
			Amount: amount,
			Date:   date,
			Seller: seller,
			Item:   item,
		},
	}

	ctx, cancel := createContextWithTimeout(cfg.RelayTimeoutSeconds*2, log)
	defer cancel()

	opts := []relay.Option{
		relay.WithClientFactory(relay.S3ClientFactory(cfg.RelayDefaultCredentials, cfg.S3Endpoint)),
		relay.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.RelayTimeoutSeconds) * time.Second}),
	}
	if extract {
		extractor, closeExtractor, err := createExtractor(ctx, log)
		if err != nil {
			return err
		}
		defer closeExtractor()
		opts = append(opts, relay.WithExtractor(extractor))
	}

	result := relay.New(opts...).Send(ctx, req)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if toSheet {
		svc, err := createSheetsService(ctx, log)
		if err != nil {
			return err
		}
		transfer := sheets.Transfer{Request: req, Result: result}
		if err := svc.AppendTransfer(ctx, sheets.DefaultTransferSheet, transfer); err != nil {
			log.Error().Err(err).Msg("Failed to append transfer to Google Sheet")
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
	}

	if !result.OK() {
		return fmt.Errorf("relay failed (%s): %s", result.Kind, result.Error)
	}
	return nil
}

// createExtractor chains the configured metadata sources: Document AI when a
// processor is configured, then OCR + ChatGPT when OPENAI_API_KEY is set.
func createExtractor(ctx context.Context, log zerolog.Logger) (*expense.Chain, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var sources []expense.MetadataSource
	if cfg.DocumentAIProcessorID != "" {
		documentAI, err := expense.NewExtractor(ctx, expense.Config{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Document AI extractor")
			return nil, cleanup, fmt.Errorf("failed to create metadata extractor: %w", err)
		}
		closers = append(closers, func() {
			if err := documentAI.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Document AI client")
			}
		})
		sources = append(sources, documentAI)
	}

	if cfg.OpenAIAPIKey != "" {
		analyzer, closeAnalyzer, err := createAnalyzer(ctx, log)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, closeAnalyzer)
		sources = append(sources, expense.NewCompletionExtractor(analyzer, openai.NewClient(cfg.OpenAIAPIKey), expense.CompletionConfig{
			Model:       cfg.OpenAIModel,
			Temperature: cfg.OpenAITemperature,
			MaxRetries:  cfg.CompletionMaxRetries,
		}))
	}

	chain := expense.NewChain(sources...)
	if chain.Len() == 0 {
		return nil, cleanup, fmt.Errorf("--extract needs DOCUMENT_AI_PROCESSOR_ID or OPENAI_API_KEY to be set")
	}
	log.Debug().Int("sources", chain.Len()).Msg("Metadata extractor created")
	return chain, cleanup, nil
}
