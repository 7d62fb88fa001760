// Lyftr CLI - Command line client for the Lyftr webhook API
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/09ahmad/lyftr-backend-assignment/clients/go/lyftr"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("LYFTR_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	client := lyftr.NewClient(baseURL, os.Getenv("WEBHOOK_SECRET"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := os.Args[1]

	switch cmd {
	case "send":
		fs := flag.NewFlagSet("send", flag.ExitOnError)
		id := fs.String("id", "", "message_id (default: random UUID)")
		from := fs.String("from", "", "sender MSISDN, e.g. +919876543210")
		to := fs.String("to", "", "recipient MSISDN")
		text := fs.String("text", "", "message text")
		_ = fs.Parse(os.Args[2:])

		if *from == "" || *to == "" {
			fmt.Fprintln(os.Stderr, "Usage: lyftr send -from <msisdn> -to <msisdn> [-text <text>] [-id <message_id>]")
			os.Exit(1)
		}
		if client.Secret == "" {
			fmt.Fprintln(os.Stderr, "WEBHOOK_SECRET must be set to send messages")
			os.Exit(1)
		}
		if *id == "" {
			*id = uuid.NewString()
		}

		msg := lyftr.Message{
			MessageID: *id,
			From:      *from,
			To:        *to,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if *text != "" {
			msg.Text = text
		}
		exitOnError(client.SendMessage(ctx, msg))
		fmt.Printf("Sent: %s\n", msg.MessageID)

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		var opts lyftr.ListOptions
		fs.IntVar(&opts.Limit, "limit", 20, "page size (1-100)")
		fs.IntVar(&opts.Offset, "offset", 0, "rows to skip")
		fs.StringVar(&opts.From, "from", "", "only this sender")
		fs.StringVar(&opts.Since, "since", "", "only messages at or after this UTC timestamp")
		fs.StringVar(&opts.Query, "q", "", "case-insensitive text search")
		_ = fs.Parse(os.Args[2:])

		resp, err := client.ListMessages(ctx, opts)
		exitOnError(err)
		for _, msg := range resp.Data {
			text := ""
			if msg.Text != nil {
				text = *msg.Text
			}
			fmt.Printf("[%s] %s -> %s: %s\n", msg.Timestamp, msg.From, msg.To, text)
		}
		fmt.Printf("%d-%d of %d\n", resp.Offset+1, resp.Offset+len(resp.Data), resp.Total)

	case "stats":
		resp, err := client.Stats(ctx)
		exitOnError(err)
		printJSON(resp)

	case "ready":
		resp, err := client.Ready(ctx)
		exitOnError(err)
		printJSON(resp)
		if resp.Status != "ready" {
			os.Exit(1)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Lyftr CLI - Webhook message API client

Usage: lyftr <command> [options]

Commands:
  send -from <msisdn> -to <msisdn> [-text <text>] [-id <id>]
                          Sign and deliver a message
  list [-limit n] [-offset n] [-from msisdn] [-since ts] [-q text]
                          List stored messages
  stats                   Show message statistics
  ready                   Check service readiness

Environment:
  LYFTR_URL        Server URL (default: http://localhost:8000)
  WEBHOOK_SECRET   Shared secret used to sign sent messages`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
