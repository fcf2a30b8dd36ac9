package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/mailvec"
	"github.com/poiesic/mailvec/ai"
)

// sample subject/body pairs in the provider export shape
var samples = []struct {
	subject string
	body    string
}{
	{"Port arrival notice - MV Aurora", "The vessel is scheduled to arrive at berth 12 on Tuesday at 0600 local time. Pilot boarding arranged."},
	{"Crew change request", "Requesting crew change for three ratings at the next port call. Visa documents attached."},
	{"Bunker delivery confirmation", "380cst fuel delivery confirmed for Thursday. Barge alongside at 1400."},
	{"Quarterly safety drill report", "All lifeboat and fire drills completed. Two observations noted on davit maintenance."},
	{"Invoice 4417 overdue", "Payment for invoice 4417 is now 30 days overdue. Please advise remittance date."},
	{"Charter party amendment", "Clause 14 amended to extend laycan by 48 hours. Countersigned copy attached."},
	{"Weather routing advisory", "Recommend adjusting course south of the low pressure system developing in the north Atlantic."},
	{"Monthly engine performance", "Main engine fuel consumption up 3 percent against baseline. Turbocharger inspection recommended."},
	{"Cargo hold inspection results", "Holds 2 and 4 passed grain clean inspection. Hold 3 requires additional washing."},
	{"Team lunch Friday", "Pizza in the break room at noon. Let me know about dietary restrictions."},
	{"New mooring procedures", "Updated mooring safety procedures effective next month. All deck officers must acknowledge."},
	{"Spare parts shipment delayed", "The fuel injector spares are held in customs. New ETA is next Wednesday."},
	{"Ballast water management update", "Treatment system certification renewed. Updated record book pages enclosed."},
	{"Agency appointment - Rotterdam", "We are pleased to confirm appointment as agents for the upcoming Rotterdam call."},
	{"Annual review scheduling", "Please pick a slot for your annual performance review before the end of the month."},
	{"Freight payment received", "Freight for voyage 23-114 received in full. Statement of account attached."},
	{"Port congestion warning", "Expect 3 to 5 days waiting at anchorage due to terminal congestion. Consider laytime implications."},
	{"Incident report - minor injury", "Able seaman sustained a minor hand injury during mooring operations. First aid administered, no lost time."},
	{"Dry dock specification draft", "First draft of the dry dock specification attached for comments. Tank coating scope still open."},
	{"IT maintenance window", "Email services will be unavailable Saturday 0200-0400 UTC for server maintenance."},
}

var (
	count      = flag.Int("count", 20, "number of messages to generate")
	out        = flag.String("out", "", "write the bulk payload to a file instead of stdout")
	ingest     = flag.Bool("ingest", false, "ingest directly instead of writing the payload")
	dbPath     = flag.String("db", "./mailvec_db", "database path used with -ingest")
	collection = flag.String("collection", "emails", "collection name used with -ingest")
	host       = flag.String("embedding-host", "http://localhost:11434/v1", "embedding host used with -ingest")
	model      = flag.String("embedding-model", "embeddinggemma", "embedding model used with -ingest")
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

type address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

type recipient struct {
	EmailAddress address `json:"emailAddress"`
}

type message struct {
	ID               string      `json:"id"`
	Subject          string      `json:"subject"`
	Body             any         `json:"body"`
	From             recipient   `json:"from"`
	ToRecipients     []recipient `json:"toRecipients"`
	ReceivedDateTime string      `json:"receivedDateTime"`
	Importance       string      `json:"importance"`
}

func generate(n int) []byte {
	importances := []string{"low", "normal", "normal", "normal", "high"}
	messages := make([]message, n)
	now := time.Now().UTC()
	for i := range messages {
		sample := samples[i%len(samples)]
		messages[i] = message{
			ID:      uuid.NewString(),
			Subject: sample.subject,
			Body: map[string]string{
				"contentType": "text",
				"content":     sample.body,
			},
			From: recipient{EmailAddress: address{
				Name:    "Fleet Operations",
				Address: "ops@example.com",
			}},
			ToRecipients: []recipient{{EmailAddress: address{
				Address: "master@example.com",
			}}},
			ReceivedDateTime: now.Add(-time.Duration(rand.Intn(720)) * time.Hour).Format(time.RFC3339),
			Importance:       importances[rand.Intn(len(importances))],
		}
	}

	payload, err := json.MarshalIndent(map[string]any{"value": messages}, "", "  ")
	if err != nil {
		panic(err)
	}
	return payload
}

func main() {
	payload := generate(*count)

	if *ingest {
		service, err := mailvec.NewService(*dbPath, *collection,
			mailvec.WithAIConfig(ai.NewConfig(
				ai.WithHost(*host),
				ai.WithModel(*model),
			)))
		if err != nil {
			panic(err)
		}
		defer service.Close()

		result, err := service.Ingest(context.Background(), payload)
		if err != nil {
			panic(err)
		}
		slog.Info("seeding complete",
			"state", string(result.State),
			"embedded", result.EmbeddedCount,
			"skipped", result.SkippedCount,
			"failed", len(result.FailedItems))
		return
	}

	if *out != "" {
		if err := os.WriteFile(*out, payload, 0644); err != nil {
			panic(err)
		}
		return
	}
	fmt.Println(string(payload))
}
