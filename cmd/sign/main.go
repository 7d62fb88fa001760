package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/09ahmad/lyftr-backend-assignment/internal/crypto"
)

func main() {
	secret := flag.String("secret", os.Getenv("WEBHOOK_SECRET"), "Webhook secret (default $WEBHOOK_SECRET)")
	bodyFile := flag.String("body", "", "File containing request body (or use stdin)")
	example := flag.Bool("example", false, "Sign a generated sample message instead of reading a body")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "Usage: sign -secret <secret> [-body <file> | -example]")
		fmt.Fprintln(os.Stderr, "  Reads body from stdin if neither -body nor -example is given")
		os.Exit(1)
	}

	var body []byte
	var err error
	switch {
	case *example:
		body, err = json.Marshal(map[string]string{
			"message_id": uuid.NewString(),
			"from":       "+919876543210",
			"to":         "+14155550100",
			"ts":         time.Now().UTC().Format(time.RFC3339),
			"text":       "Hello",
		})
	case *bodyFile != "":
		body, err = os.ReadFile(*bodyFile)
	default:
		body, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read body: %v\n", err)
		os.Exit(1)
	}

	if *example {
		fmt.Printf("Body: %s\n", body)
	}
	fmt.Printf("X-Signature: %s\n", crypto.Sign(*secret, body))
}
