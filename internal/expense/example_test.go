package expense_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"playground/internal/expense"
)

// ExampleExtractor demonstrates reading receipt metadata with Document AI.
func ExampleExtractor() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Credentials come from GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
	extractor, err := expense.NewExtractor(ctx, expense.Config{
		ProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:    "us",
		ProcessorID: os.Getenv("DOCUMENT_AI_PROCESSOR_ID"),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer extractor.Close()

	content, err := os.ReadFile("receipt.jpg")
	if err != nil {
		log.Fatalf("Failed to read receipt: %v", err)
	}

	meta, confidence, err := extractor.ExtractWithConfidence(ctx, content, "")
	if err != nil {
		log.Fatalf("Failed to extract metadata: %v", err)
	}

	fmt.Printf("%s paid %s at %s for %s\n", meta.Date, meta.Amount, meta.Seller, meta.Item)
	fmt.Printf("seller confidence: %.2f\n", confidence["supplier_name"])
}
