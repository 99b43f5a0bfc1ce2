package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"genielearn-backend/internal/chatclient"
	"genielearn-backend/internal/models"
	"genielearn-backend/internal/ws"
)

var (
	server  = flag.String("server", "http://localhost:8080", "backend base URL")
	email   = flag.String("email", "", "account email")
	group   = flag.String("group", "", "study group ID to join")
	refresh = flag.Duration("refresh", 2*time.Second, "timeline redraw interval")
)

func main() {
	flag.Parse()

	if *email == "" || *group == "" {
		fmt.Fprintln(os.Stderr, "usage: client -email you@example.com -group <group-id>")
		os.Exit(1)
	}

	password := promptPassword()
	login, err := doLogin(*server, *email, password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chat := chatclient.New(*server, login.Token, *group, login.User.ID, login.User.Name)
	chat.OnSystem = func(ev ws.SystemEvent) {
		fmt.Printf("\n-- %s --\n", ev.Content)
	}
	chat.OnError = func(ev ws.ErrorEvent) {
		fmt.Printf("\n!! %s: %s\n", ev.Code, ev.Message)
	}

	if err := chat.Start(ctx); err != nil {
		log.Fatalf("Failed to start chat: %v", err)
	}
	defer chat.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	go redrawLoop(ctx, chat)

	fmt.Printf("Joined group %s as %s. Type a message and press Enter (/quit to exit).\n", *group, login.User.Name)
	readInput(ctx, chat, interrupt)
}

func promptPassword() string {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("Password: ")
	scanner.Scan()
	return scanner.Text()
}

func doLogin(baseURL, email, password string) (*models.LoginResponse, error) {
	body, _ := json.Marshal(models.LoginRequest{Email: email, Password: password})
	resp, err := http.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var login models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, err
	}
	return &login, nil
}

func redrawLoop(ctx context.Context, chat *chatclient.Client) {
	ticker := time.NewTicker(*refresh)
	defer ticker.Stop()

	lastLen := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries := chat.Timeline().Entries()
			if len(entries) == lastLen {
				continue
			}
			for _, e := range entries[lastLen:] {
				marker := ""
				if e.IsOptimistic {
					marker = " (sending...)"
				}
				fmt.Printf("[%s] %s: %s%s\n", e.Timestamp.Local().Format("15:04:05"), e.SenderName, e.Content, marker)
			}
			lastLen = len(entries)
		}
	}
}

func readInput(ctx context.Context, chat *chatclient.Client, interrupt chan os.Signal) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-interrupt:
			log.Println("Interrupt received, closing connection...")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			content := strings.TrimSpace(line)
			if content == "" {
				continue
			}
			if content == "/quit" {
				return
			}
			if err := chat.Send(ctx, content); err != nil {
				log.Printf("Error sending message: %v", err)
			}
		}
	}
}
