// Deposit load generator: hammers the vault API with concurrent
// deposits, each carrying a fresh reference ID, and reports throughput.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

func main() {
	var (
		target      = flag.String("target", "http://localhost:8080", "vaultd base URL")
		account     = flag.String("account", "0x00000000000000000000000000000000000000a1", "account to credit")
		amountWei   = flag.String("amount", "10000", "wei per deposit")
		totalCount  = flag.Int("n", 100000, "total deposits")
		concurrency = flag.Int("c", 200, "concurrent requests")
	)
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	url := *target + "/v1/deposits"

	var wg sync.WaitGroup
	wg.Add(*totalCount)
	sem := make(chan struct{}, *concurrency)

	var failed int64
	var mu sync.Mutex

	startTime := time.Now()

	for i := 0; i < *totalCount; i++ {
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			body, _ := json.Marshal(map[string]string{
				"account":    *account,
				"amount_wei": *amountWei,
				"ref_id":     uuid.New().String(),
			})
			resp, err := client.Post(url, "application/json", bytes.NewReader(body))
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				if idx%10000 == 0 {
					log.Printf("deposit %d failed: %v", idx, err)
				}
				return
			}
			resp.Body.Close()
			if resp.StatusCode >= 400 {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests (%d failed) in %v\n", *totalCount, failed, elapsed)
	fmt.Printf("TPS: %.2f\n", float64(*totalCount)/elapsed.Seconds())
}
