// Package browser provides a headless-browser automation node built on chromedp.
package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/template"
)

const (
	OperationNavigate   = "navigate"
	OperationScreenshot = "screenshot"
	OperationGetText    = "getText"
	OperationClick      = "click"
	OperationFill       = "fill"
	OperationWait       = "wait"
	OperationEvaluate   = "evaluate"

	defaultSelector = "body"
	defaultTimeout  = 30

	screenshotQuality = 90
)

// BrowserNode implements the Node interface for page automation. One browser
// process and one page serve all items of a batch; the session is created
// lazily on first use and released by the runner through Close.
type BrowserNode struct {
	id     string
	config BrowserConfig
	sess   *session
}

// BrowserConfig defines the configuration for browser nodes.
type BrowserConfig struct {
	Operation string `json:"operation"`
	URL       string `json:"url,omitempty"`
	Selector  string `json:"selector"`
	Value     string `json:"value,omitempty"`
	Script    string `json:"script,omitempty"`
	Timeout   int    `json:"timeout"`
	Headless  bool   `json:"headless"`
	FullPage  bool   `json:"fullPage"`
}

// NewBrowserNode creates a new browser node.
func NewBrowserNode(id string, config map[string]any) (*BrowserNode, error) {
	browserConfig := BrowserConfig{
		Operation: OperationNavigate,
		Selector:  defaultSelector,
		Timeout:   defaultTimeout,
		Headless:  true,
	}

	if operation, ok := config["operation"].(string); ok {
		browserConfig.Operation = operation
	}

	if url, ok := config["url"].(string); ok {
		browserConfig.URL = url
	}

	if selector, ok := config["selector"].(string); ok && selector != "" {
		browserConfig.Selector = selector
	}

	if value, ok := config["value"].(string); ok {
		browserConfig.Value = value
	}

	if script, ok := config["script"].(string); ok {
		browserConfig.Script = script
	}

	if timeout, ok := config["timeout"].(float64); ok {
		browserConfig.Timeout = int(timeout)
	}

	if headless, ok := config["headless"].(bool); ok {
		browserConfig.Headless = headless
	}

	if fullPage, ok := config["fullPage"].(bool); ok {
		browserConfig.FullPage = fullPage
	}

	node := &BrowserNode{id: id, config: browserConfig}
	if err := node.validateOperation(); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *BrowserNode) validateOperation() error {
	switch n.config.Operation {
	case OperationNavigate, OperationScreenshot:
		if n.config.URL == "" && n.config.Operation == OperationNavigate {
			return errors.New("navigate operation requires field 'url'")
		}

		return nil
	case OperationGetText, OperationWait:
		return nil
	case OperationClick:
		if n.config.Selector == defaultSelector {
			return errors.New("click operation requires field 'selector'")
		}

		return nil
	case OperationFill:
		if n.config.Selector == defaultSelector {
			return errors.New("fill operation requires field 'selector'")
		}

		return nil
	case OperationEvaluate:
		if n.config.Script == "" {
			return errors.New("evaluate operation requires field 'script'")
		}

		return nil
	default:
		return fmt.Errorf("invalid operation: %s", n.config.Operation)
	}
}

// ID returns the node ID.
func (n *BrowserNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *BrowserNode) Type() string {
	return "browser"
}

// Execute performs one page operation for one item.
func (n *BrowserNode) Execute(ctx context.Context, ectx models.ExecutionContext, item models.Item) (models.NodeResult, error) {
	if n.sess == nil {
		sess, err := newSession(n.config.Headless)
		if err != nil {
			return models.NodeResult{}, fmt.Errorf("failed to start browser: %w", err)
		}

		n.sess = sess
	}

	opCtx, cancel := context.WithTimeout(n.sess.ctx, time.Duration(n.config.Timeout)*time.Second)
	defer cancel()

	data, err := n.run(opCtx, ectx, item)
	if err != nil {
		if opCtx.Err() != nil {
			return models.NodeResult{}, fmt.Errorf("browser operation '%s' timed out after %ds", n.config.Operation, n.config.Timeout)
		}

		return models.NodeResult{}, fmt.Errorf("browser operation '%s' failed: %w", n.config.Operation, err)
	}

	data["operation"] = n.config.Operation

	return models.NodeResult{
		NodeID:    n.id,
		Data:      data,
		Status:    string(models.NodeStatusSuccess),
		Timestamp: time.Now().UTC(),
	}, nil
}

func (n *BrowserNode) run(ctx context.Context, ectx models.ExecutionContext, item models.Item) (map[string]any, error) {
	switch n.config.Operation {
	case OperationScreenshot:
		return n.screenshot(ctx, ectx, item)
	case OperationGetText:
		var text string
		if err := chromedp.Run(ctx, chromedp.Text(n.config.Selector, &text, chromedp.ByQuery)); err != nil {
			return nil, err
		}

		return map[string]any{"selector": n.config.Selector, "text": text}, nil
	case OperationClick:
		if err := chromedp.Run(ctx, chromedp.Click(n.config.Selector, chromedp.ByQuery)); err != nil {
			return nil, err
		}

		return map[string]any{"selector": n.config.Selector, "clicked": true}, nil
	case OperationFill:
		value, err := template.RenderString(n.config.Value, &ectx, item)
		if err != nil {
			return nil, fmt.Errorf("failed to render value template: %w", err)
		}

		if err := chromedp.Run(ctx, chromedp.SetValue(n.config.Selector, value, chromedp.ByQuery)); err != nil {
			return nil, err
		}

		return map[string]any{"selector": n.config.Selector, "filled": true}, nil
	case OperationWait:
		if err := chromedp.Run(ctx, chromedp.WaitVisible(n.config.Selector, chromedp.ByQuery)); err != nil {
			return nil, err
		}

		return map[string]any{"selector": n.config.Selector, "visible": true}, nil
	case OperationEvaluate:
		var result any
		if err := chromedp.Run(ctx, chromedp.Evaluate(n.config.Script, &result)); err != nil {
			return nil, err
		}

		return map[string]any{"result": result}, nil
	default:
		return n.navigate(ctx, ectx, item)
	}
}

func (n *BrowserNode) navigate(ctx context.Context, ectx models.ExecutionContext, item models.Item) (map[string]any, error) {
	url, err := template.RenderString(n.config.URL, &ectx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to render url template: %w", err)
	}

	var title, location string

	err = chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
		chromedp.Location(&location),
	)
	if err != nil {
		return nil, err
	}

	return map[string]any{"url": location, "title": title}, nil
}

func (n *BrowserNode) screenshot(ctx context.Context, ectx models.ExecutionContext, item models.Item) (map[string]any, error) {
	actions := make([]chromedp.Action, 0, 2)

	if n.config.URL != "" {
		url, err := template.RenderString(n.config.URL, &ectx, item)
		if err != nil {
			return nil, fmt.Errorf("failed to render url template: %w", err)
		}

		actions = append(actions, chromedp.Navigate(url))
	}

	var buf []byte
	if n.config.FullPage {
		actions = append(actions, chromedp.FullScreenshot(&buf, screenshotQuality))
	} else {
		actions = append(actions, chromedp.CaptureScreenshot(&buf))
	}

	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, err
	}

	return map[string]any{
		"format": "png",
		"bytes":  len(buf),
		"data":   base64.StdEncoding.EncodeToString(buf),
	}, nil
}

// Close releases the browser process held for the batch.
func (n *BrowserNode) Close(_ context.Context) error {
	if n.sess == nil {
		return nil
	}

	n.sess.close()
	n.sess = nil

	return nil
}

// Validate validates the node configuration.
func (n *BrowserNode) Validate(config map[string]any) error {
	_, err := NewBrowserNode("validate", config)

	return err
}
