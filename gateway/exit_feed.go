// Package gateway 接入外部保护器的退出信号流。引擎本身不管传输，这里把
// WS 帧解成类型化信号后交给调用方；调用方负责与评估循环串行化。
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"risk-engine-go/infrastructure/logger"
	"risk-engine-go/infrastructure/monitor"
	"risk-engine-go/risk"
)

// Signal 一条解析后的保护性退出指令。
type Signal struct {
	Action      string // "set" 或 "clear"
	Symbol      string
	Urgency     risk.Urgency // Action=set 时有效
	ReduceRatio float64
	Reason      string
}

// Handler 信号回调。Feed 在读循环 goroutine 里调用，调用方自行排队。
type Handler func(Signal)

// signalFrame 保护器下发的原始 JSON 帧。
type signalFrame struct {
	Action      string  `json:"action"`
	Symbol      string  `json:"symbol"`
	Urgency     string  `json:"urgency"`
	ReduceRatio float64 `json:"reduce_ratio"`
	Reason      string  `json:"reason"`
}

// ExitFeed 带自动重连的退出信号 WS 客户端。
type ExitFeed struct {
	URL       string
	Dialer    *websocket.Dialer
	Reconnect time.Duration // 断线重连间隔
	ReadLimit int64

	handler Handler
	log     *logger.Logger
	mon     *monitor.Monitor
}

// NewExitFeed 创建信号客户端；log/mon 允许为 nil。
func NewExitFeed(url string, handler Handler, log *logger.Logger, mon *monitor.Monitor) *ExitFeed {
	return &ExitFeed{
		URL:       url,
		Dialer:    websocket.DefaultDialer,
		Reconnect: 5 * time.Second,
		ReadLimit: 1 << 16,
		handler:   handler,
		log:       log,
		mon:       mon,
	}
}

// Run 阻塞运行直到 ctx 结束；连接断开后按 Reconnect 间隔重试。
func (f *ExitFeed) Run(ctx context.Context) error {
	if f.URL == "" {
		return fmt.Errorf("feed url required")
	}
	for {
		err := f.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.mon != nil {
			f.mon.RecordWSDisconnect()
		}
		if f.log != nil && err != nil {
			f.log.LogError(err, map[string]interface{}{"feed": f.URL})
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.Reconnect):
		}
	}
}

func (f *ExitFeed) runOnce(ctx context.Context) error {
	conn, _, err := f.Dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.URL, err)
	}
	defer conn.Close()
	conn.SetReadLimit(f.ReadLimit)
	if f.mon != nil {
		f.mon.RecordWSConnection()
	}

	// ctx 取消时强制断开读循环
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		sig, err := parseFrame(message)
		if err != nil {
			if f.mon != nil {
				f.mon.RecordSignalError()
			}
			if f.log != nil {
				f.log.LogError(err, map[string]interface{}{"frame": string(message)})
			}
			continue
		}
		if f.handler != nil {
			f.handler(sig)
		}
	}
}

// parseFrame 解析并校验一帧信号。
func parseFrame(data []byte) (Signal, error) {
	var frame signalFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Signal{}, fmt.Errorf("decode signal frame: %w", err)
	}
	if frame.Symbol == "" {
		return Signal{}, fmt.Errorf("signal frame missing symbol")
	}
	switch frame.Action {
	case "clear":
		return Signal{Action: "clear", Symbol: frame.Symbol}, nil
	case "set":
		urgency, err := risk.ParseUrgency(frame.Urgency)
		if err != nil {
			return Signal{}, err
		}
		if frame.ReduceRatio < 0 || frame.ReduceRatio > 1 {
			return Signal{}, fmt.Errorf("%w: %.4f", risk.ErrBadReduceRatio, frame.ReduceRatio)
		}
		return Signal{
			Action:      "set",
			Symbol:      frame.Symbol,
			Urgency:     urgency,
			ReduceRatio: frame.ReduceRatio,
			Reason:      frame.Reason,
		}, nil
	default:
		return Signal{}, fmt.Errorf("unknown signal action %q", frame.Action)
	}
}
