package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/model"
	"go.uber.org/zap"
)

// LogRecordInterface defines the interface for the logger service
type LogRecordInterface interface {
	// Start starts the logger service
	Start() error
	// Stop drains pending records and stops the service
	Stop()
	// LogAsync records a finished request without blocking the caller
	LogAsync(logs *model.ChatLog)
	SetMetricsService(metricsService MetricsInterface)
}

// LoggerRecordService turns finished ChatLogs into metrics, a summary log line
// and optionally a daily ndjson file
type LoggerRecordService struct {
	recordDir      string
	metricsService MetricsInterface

	logChan  chan *model.ChatLog
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex

	started bool
	stopped bool
}

// NewLogRecordService creates a new logger service
func NewLogRecordService(cfg config.LogConfig) *LoggerRecordService {
	size := cfg.RecordQueueSize
	if size <= 0 {
		size = config.DefaultRecordQueueSize
	}
	return &LoggerRecordService{
		recordDir: cfg.RecordDir,
		logChan:   make(chan *model.ChatLog, size),
		stopChan:  make(chan struct{}),
	}
}

// SetMetricsService sets the metrics service for the logger
func (ls *LoggerRecordService) SetMetricsService(metricsService MetricsInterface) {
	ls.metricsService = metricsService
}

// Start starts the logger service
func (ls *LoggerRecordService) Start() error {
	logger.Info("==> Start log record service",
		zap.String("recordDir", ls.recordDir),
		zap.Int("queueSize", cap(ls.logChan)),
	)
	if ls.recordDir != "" {
		if err := os.MkdirAll(ls.recordDir, 0755); err != nil {
			return fmt.Errorf("failed to create record directory: %w", err)
		}
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.started {
		return nil
	}
	ls.started = true
	ls.wg.Add(1)
	go ls.logWriter()
	return nil
}

// Stop stops the logger service
func (ls *LoggerRecordService) Stop() {
	ls.mu.Lock()
	if ls.stopped {
		ls.mu.Unlock()
		return
	}
	ls.stopped = true
	ls.mu.Unlock()

	close(ls.stopChan)
	ls.wg.Wait()
}

// LogAsync logs a chat request asynchronously
func (ls *LoggerRecordService) LogAsync(logs *model.ChatLog) {
	if logs == nil {
		return
	}

	ls.mu.Lock()
	stopped := ls.stopped
	ls.mu.Unlock()
	if stopped {
		ls.logSync(logs)
		return
	}

	select {
	case ls.logChan <- logs:
	default:
		// Channel is full, log synchronously to avoid dropping the record
		ls.logSync(logs)
	}
}

// logWriter consumes records until stopped
func (ls *LoggerRecordService) logWriter() {
	defer ls.wg.Done()

	for {
		select {
		case log := <-ls.logChan:
			ls.logSync(log)
		case <-ls.stopChan:
			// Process remaining logs
			for {
				select {
				case log := <-ls.logChan:
					ls.logSync(log)
				default:
					return
				}
			}
		}
	}
}

// logSync handles one record on the calling goroutine
func (ls *LoggerRecordService) logSync(logs *model.ChatLog) {
	if logs == nil {
		return
	}
	if ls.metricsService != nil {
		ls.metricsService.RecordChatLog(logs)
	}

	logger.Info("chat request finished",
		zap.String("requestId", logs.RequestID),
		zap.String("model", logs.Model),
		zap.String("outcome", logs.Outcome),
		zap.Int("rounds", logs.Rounds),
		zap.Int("toolCalls", len(logs.ToolCalls)),
		zap.Int("malformedDeltas", logs.MalformedDeltas),
		zap.Int64("totalLatencyMs", logs.TotalLatency),
	)

	if ls.recordDir == "" {
		return
	}

	logJSON, err := logs.ToCompressedJSON()
	if err != nil {
		logger.Error("Failed to marshal log",
			zap.Error(err),
		)
		return
	}

	filename := logs.Timestamp.Format("20060102") + ".log"
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := writeLogToFile(filepath.Join(ls.recordDir, filename), logJSON); err != nil {
		logger.Error("Failed to write record log",
			zap.String("requestId", logs.RequestID),
			zap.Error(err),
		)
	}
}

// writeLogToFile appends one line to the given file
func writeLogToFile(filePath string, content string) error {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	contentBytes := append([]byte(content), '\n')
	if _, err := file.Write(contentBytes); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
