package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioError is a non-2xx answer from the Messages API.
type TwilioError struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *TwilioError) Error() string {
	return fmt.Sprintf("twilio: status %d code %d: %s", e.Status, e.Code, e.Message)
}

// TwilioClient sends SMS through the Twilio Messages REST API.
// A 400 answer means Twilio refused the recipient and is reported as
// (false, nil); every other failure is an error.
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTP       *http.Client
	Logger     *logrus.Logger
}

func NewTwilioClient(accountSID, authToken, from string, logger *logrus.Logger) *TwilioClient {
	return &TwilioClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    twilioAPIBase,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
}

func (c *TwilioClient) Send(ctx context.Context, phoneNumber, message string) (bool, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(c.BaseURL, "/"), url.PathEscape(c.AccountSID))
	form := url.Values{}
	form.Set("To", phoneNumber)
	form.Set("From", c.From)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("twilio request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ok struct {
			SID string `json:"sid"`
		}
		_ = json.Unmarshal(body, &ok)
		c.log().WithField("to", phoneNumber).WithField("sid", ok.SID).Info("sms sent")
		return true, nil
	}

	terr := &TwilioError{Status: resp.StatusCode}
	_ = json.Unmarshal(body, terr)
	terr.Status = resp.StatusCode
	if resp.StatusCode == http.StatusBadRequest {
		c.log().WithField("to", phoneNumber).WithField("code", terr.Code).Warn("twilio rejected recipient")
		return false, nil
	}
	return false, terr
}

func (c *TwilioClient) GenerateCode() (string, error) { return helpers.GenOTPCode() }

func (c *TwilioClient) log() logrus.FieldLogger {
	if c.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return c.Logger
}

var _ repository.Notifier = (*TwilioClient)(nil)
