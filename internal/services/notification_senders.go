package services

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Sender delivers one message over a concrete channel. The string is a
// human readable outcome, success or failure alike.
type Sender interface {
	Send(title, content string, extra map[string]interface{}) (bool, string)
}

// TestConnection exercises a sender with a fixed check message.
func TestConnection(s Sender) (bool, string) {
	return s.Send("test title", "test message", nil)
}

type WechatWorkSender struct {
	WebhookURL       string
	MentionedList    []string
	MentionedMobiles []string
	client           *http.Client
}

func NewWechatWorkSender(config map[string]interface{}) *WechatWorkSender {
	return &WechatWorkSender{
		WebhookURL:       cast.ToString(config["webhook_url"]),
		MentionedList:    splitMentions(cast.ToString(config["mentioned_list"])),
		MentionedMobiles: splitMentions(cast.ToString(config["mentioned_mobile_list"])),
		client:           &http.Client{Timeout: 30 * time.Second},
	}
}

func splitMentions(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if id := strings.TrimSpace(f); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (s *WechatWorkSender) Send(title, content string, extra map[string]interface{}) (bool, string) {
	if s.WebhookURL == "" {
		return false, "webhook url not configured"
	}
	markdown := map[string]interface{}{
		"content": fmt.Sprintf("**%s**\n\n%s", title, content),
	}
	if len(s.MentionedList) > 0 || len(s.MentionedMobiles) > 0 {
		markdown["mentioned_list"] = s.MentionedList
		markdown["mentioned_mobile_list"] = s.MentionedMobiles
	}
	payload := map[string]interface{}{
		"msgtype":  "markdown",
		"markdown": markdown,
	}
	body, _ := json.Marshal(payload)

	resp, err := s.client.Post(s.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("send exception: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Sprintf("send exception: %v", err)
	}
	if result.ErrCode != 0 {
		return false, fmt.Sprintf("wechat work error %d: %s", result.ErrCode, result.ErrMsg)
	}
	return true, "message sent"
}

type TelegramSender struct {
	BotToken       string
	ChatID         string
	ParseMode      string
	DisablePreview bool
	// apiBase is overridable in tests; empty means the public API.
	apiBase string
	client  *http.Client
}

func NewTelegramSender(config map[string]interface{}) *TelegramSender {
	parseMode := "Markdown"
	if v, ok := config["parse_mode"]; ok {
		parseMode = cast.ToString(v)
	}
	return &TelegramSender{
		BotToken:       cast.ToString(config["bot_token"]),
		ChatID:         cast.ToString(config["chat_id"]),
		ParseMode:      parseMode,
		DisablePreview: cast.ToBool(config["disable_web_page_preview"]),
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *TelegramSender) Send(title, content string, extra map[string]interface{}) (bool, string) {
	if s.BotToken == "" || s.ChatID == "" {
		return false, "bot token or chat id not configured"
	}
	payload := map[string]interface{}{
		"chat_id":                  s.ChatID,
		"text":                     fmt.Sprintf("*%s*\n\n%s", title, content),
		"disable_web_page_preview": s.DisablePreview,
	}
	if s.ParseMode != "" {
		payload["parse_mode"] = s.ParseMode
	}
	body, _ := json.Marshal(payload)

	base := s.apiBase
	if base == "" {
		base = "https://api.telegram.org"
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, s.BotToken)
	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("send exception: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Sprintf("send exception: %v", err)
	}
	if !result.OK {
		return false, fmt.Sprintf("telegram error: %s", result.Description)
	}
	return true, "message sent"
}

type EmailSender struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	ToEmails  []string
	UseTLS    bool
	// timeout bounds the whole SMTP session, dial included.
	timeout time.Duration
}

func NewEmailSender(config map[string]interface{}) *EmailSender {
	port := cast.ToInt(config["smtp_port"])
	if port == 0 {
		port = 587
	}
	useTLS := true
	if v, ok := config["use_tls"]; ok {
		useTLS = cast.ToBool(v)
	}
	return &EmailSender{
		Host:      cast.ToString(config["smtp_server"]),
		Port:      port,
		Username:  cast.ToString(config["username"]),
		Password:  cast.ToString(config["password"]),
		FromEmail: cast.ToString(config["from_email"]),
		ToEmails:  splitRecipients(cast.ToString(config["to_emails"])),
		UseTLS:    useTLS,
		timeout:   30 * time.Second,
	}
}

// splitRecipients accepts comma, semicolon or newline separated
// addresses and drops empties.
func splitRecipients(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if addr := strings.TrimSpace(f); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func (s *EmailSender) Send(title, content string, extra map[string]interface{}) (bool, string) {
	if s.Host == "" || s.Username == "" || s.Password == "" || s.FromEmail == "" {
		return false, "email configuration incomplete"
	}
	if len(s.ToEmails) == 0 {
		return false, "no valid recipients configured"
	}

	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.FromEmail))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(s.ToEmails, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", title))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(content)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	if err := s.deliver(addr, []byte(msg.String())); err != nil {
		return false, fmt.Sprintf("send exception: %v", err)
	}
	return true, fmt.Sprintf("email sent to %d recipient(s)", len(s.ToEmails))
}

func (s *EmailSender) deliver(addr string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, s.timeout)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		conn.Close()
		return err
	}
	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if s.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return err
			}
		}
	}

	if s.Username != "" {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(s.FromEmail); err != nil {
		return err
	}
	for _, to := range s.ToEmails {
		if err := client.Rcpt(to); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

type WebhookSender struct {
	URL        string
	Method     string
	RawHeaders string
	Timeout    int
	VerifySSL  bool
}

func NewWebhookSender(config map[string]interface{}) *WebhookSender {
	method := strings.ToUpper(strings.TrimSpace(cast.ToString(config["method"])))
	if method == "" {
		method = http.MethodPost
	}
	timeout := cast.ToInt(config["timeout"])
	if timeout == 0 {
		timeout = 30
	}
	if timeout < 1 {
		timeout = 1
	}
	if timeout > 300 {
		timeout = 300
	}
	verify := true
	if v, ok := config["verify_ssl"]; ok {
		verify = cast.ToBool(v)
	}
	return &WebhookSender{
		URL:        cast.ToString(config["url"]),
		Method:     method,
		RawHeaders: cast.ToString(config["headers"]),
		Timeout:    timeout,
		VerifySSL:  verify,
	}
}

func (s *WebhookSender) Send(title, content string, extra map[string]interface{}) (bool, string) {
	if s.URL == "" {
		return false, "webhook url not configured"
	}
	headers := map[string]string{}
	if strings.TrimSpace(s.RawHeaders) != "" {
		if err := json.Unmarshal([]byte(s.RawHeaders), &headers); err != nil {
			return false, fmt.Sprintf("bad header format: %v", err)
		}
	}

	payload := map[string]interface{}{
		"title":      title,
		"content":    content,
		"timestamp":  time.Now().Format(time.RFC3339),
		"extra_data": extra,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(s.Method, s.URL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("send exception: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: time.Duration(s.Timeout) * time.Second}
	if !s.VerifySSL {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("send exception: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, fmt.Sprintf("webhook delivered with status %d", resp.StatusCode)
	}
	return false, fmt.Sprintf("webhook failed with status %d", resp.StatusCode)
}
