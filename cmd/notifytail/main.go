// Command notifytail connects to the realtime websocket and prints every
// event it receives. With -clients > 1 it opens that many connections and
// only reports counts, which makes it a small load generator for the hub.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks connection and event counts across clients.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	PongsReceived        int64
}

var metrics Metrics

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	token := flag.String("token", "", "Access token; logs in with -email/-password when empty")
	email := flag.String("email", "", "Login email")
	password := flag.String("password", "password123", "Login password")
	clients := flag.Int("clients", 1, "Number of concurrent connections")
	duration := flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	heartbeat := flag.Duration("heartbeat", 30*time.Second, "Interval between application pings (0 disables)")
	flag.Parse()

	if *token == "" {
		if *email == "" {
			log.Fatal("either -token or -email is required")
		}
		t, err := login(*host, *email, *password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
		*token = t
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	verbose := *clients == 1
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, *token, verbose, *heartbeat, stop, &wg)
		if *clients > 1 {
			time.Sleep(20 * time.Millisecond)
		}
	}

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}
	select {
	case <-timeout:
	case <-interrupt:
	}

	close(stop)
	wg.Wait()
	printMetrics()
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func runClient(host, token string, verbose bool, heartbeat time.Duration, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: url.Values{"token": {token}}.Encode()}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		if verbose {
			log.Printf("dial failed: %v", err)
		}
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				if verbose && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("read: %v", err)
				}
				return
			}
			var ev event
			if err := json.Unmarshal(raw, &ev); err != nil {
				if verbose {
					log.Printf("raw: %s", raw)
				}
				continue
			}
			if ev.Type == "pong" {
				atomic.AddInt64(&metrics.PongsReceived, 1)
				continue
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
			if verbose {
				log.Printf("%-16s %s", ev.Type, ev.Payload)
			}
		}
	}()

	var ticks <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		ticks = ticker.C
	}
	// This goroutine is the only writer.
	for {
		select {
		case <-ticks:
			if err := c.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
				return
			}
		case <-stop:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case <-done:
			return
		}
	}
}

func printMetrics() {
	log.Printf("connections: attempted=%d ok=%d failed=%d events=%d pongs=%d",
		atomic.LoadInt64(&metrics.ConnectionsAttempted),
		atomic.LoadInt64(&metrics.ConnectionsSuccess),
		atomic.LoadInt64(&metrics.ConnectionsFailed),
		atomic.LoadInt64(&metrics.EventsReceived),
		atomic.LoadInt64(&metrics.PongsReceived))
}
