package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/operations"
	"github.com/BaSui01/aimlflow/config"
)

// =============================================================================
// ▶️ run 命令
// =============================================================================

func runOperation(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	opName := fs.String("operation", "", "Operation to execute")
	model := fs.String("model", "", "Model identifier")
	input := fs.String("input", "-", `JSON items file, "-" reads stdin`)
	concurrency := fs.Int("concurrency", 0, "Items in flight (0 keeps runner.concurrency)")
	continueOnFail := fs.Bool("continue-on-fail", false, "Emit error rows instead of aborting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	op, ok := aimlapi.ParseOperation(*opName)
	if !ok {
		return fmt.Errorf("unknown operation %q", *opName)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *concurrency > 0 {
		cfg.Runner.Concurrency = *concurrency
	}
	if *continueOnFail {
		cfg.Runner.ContinueOnFail = true
	}

	raw, err := readInput(*input, stdin)
	if err != nil {
		return err
	}
	items, err := parseItems(raw)
	if err != nil {
		return err
	}

	logger := initLogger(cliLogConfig(cfg.Log))
	defer logger.Sync()

	a, err := newApp(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, err := a.runner.Run(ctx, operations.Request{
		Operation: op,
		BaseURL:   cfg.API.BaseURL,
		Model:     *model,
		Items:     items,
	})
	if err != nil {
		logger.Error("operation failed", zap.String("operation", string(op)), zap.Error(err))
		return err
	}
	return writeJSON(stdout, rows)
}

// =============================================================================
// 📚 models 命令
// =============================================================================

func runModels(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	opName := fs.String("operation", "", "Operation to filter models for")
	refresh := fs.Bool("refresh", false, "Bypass the model catalog cache")
	if err := fs.Parse(args); err != nil {
		return err
	}

	op, ok := aimlapi.ParseOperation(*opName)
	if !ok {
		return fmt.Errorf("unknown operation %q", *opName)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := initLogger(cliLogConfig(cfg.Log))
	defer logger.Sync()

	a, err := newApp(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *refresh {
		if err := a.lister.Invalidate(ctx, cfg.API.BaseURL); err != nil {
			logger.Warn("failed to invalidate model cache", zap.Error(err))
		}
	}
	opts, err := a.lister.Options(ctx, cfg.API.BaseURL, op)
	if err != nil {
		return err
	}
	return writeJSON(stdout, opts)
}

// =============================================================================
// 🔧 输入输出
// =============================================================================

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// parseItems 接受 item 数组或单个 item；空输入视为一个无参数的 item
func parseItems(raw []byte) ([]operations.Item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []operations.Item{{}}, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("input is not valid JSON")
	}

	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		var item operations.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		return []operations.Item{item}, nil
	}

	var items []operations.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("input contains no items")
	}
	return items, nil
}

// cliLogConfig 把日志改写到 stderr，stdout 只输出结果行
func cliLogConfig(cfg config.LogConfig) config.LogConfig {
	paths := make([]string, 0, len(cfg.OutputPaths))
	for _, p := range cfg.OutputPaths {
		if p == "stdout" {
			p = "stderr"
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}
	cfg.OutputPaths = paths
	return cfg
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
