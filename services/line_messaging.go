package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/line/line-bot-sdk-go/linebot"
)

// LineMessagingService pushes check-in notices to parents over the LINE
// Messaging API. Optional: without credentials every push is a no-op error
// the caller logs and drops.
type LineMessagingService struct {
	Bot *linebot.Client
}

// NewLineMessagingService creates a new instance
func NewLineMessagingService() *LineMessagingService {
	channelSecret := os.Getenv("LINE_CHANNEL_SECRET")
	channelToken := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")

	if channelSecret == "" || channelToken == "" {
		log.Println("LINE Messaging API disabled: missing LINE_CHANNEL_SECRET or LINE_CHANNEL_ACCESS_TOKEN")
		return &LineMessagingService{Bot: nil}
	}

	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		log.Fatalf("Cannot create LINE bot client: %v", err)
	}

	return &LineMessagingService{Bot: bot}
}

// PushCheckInMessage notifies a parent that their child checked in.
func (s *LineMessagingService) PushCheckInMessage(lineUserID, studentName, locationName string, at time.Time) error {
	if s.Bot == nil {
		return fmt.Errorf("LINE Bot client is not initialized")
	}
	if lineUserID == "" {
		return fmt.Errorf("student has no parent LINE id")
	}

	text := fmt.Sprintf("%s checked in at %s (%s)", studentName, at.Format("15:04"), locationName)
	_, err := s.Bot.PushMessage(lineUserID, linebot.NewTextMessage(text)).Do()
	if err != nil {
		return fmt.Errorf("LINE Messaging API failed: %v", err)
	}
	return nil
}

// PushCheckOutMessage notifies a parent that their child checked out.
func (s *LineMessagingService) PushCheckOutMessage(lineUserID, studentName, locationName string, at time.Time) error {
	if s.Bot == nil {
		return fmt.Errorf("LINE Bot client is not initialized")
	}
	if lineUserID == "" {
		return fmt.Errorf("student has no parent LINE id")
	}

	text := fmt.Sprintf("%s checked out at %s (%s)", studentName, at.Format("15:04"), locationName)
	_, err := s.Bot.PushMessage(lineUserID, linebot.NewTextMessage(text)).Do()
	if err != nil {
		return fmt.Errorf("LINE Messaging API failed: %v", err)
	}
	return nil
}
