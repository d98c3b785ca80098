// =============================================================================
// aimlflow 主入口
// =============================================================================
// 命令行批量执行与 HTTP 服务两种形态共享同一套网关客户端
//
// 使用方法:
//
//	aimlflow run --operation imageGeneration --model flux/schnell --input items.json
//	aimlflow models --operation videoGeneration
//	aimlflow serve --config config.yaml
//	aimlflow health --addr http://localhost:8080
//	aimlflow version
// =============================================================================
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/aimlflow/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runOperation(os.Args[2:], os.Stdin, os.Stdout)
	case "models":
		err = runModels(os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(os.Args[2:])
	case "health":
		err = runHealthCheck(os.Args[2:], os.Stdout)
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 加载并校验配置，path 为空时仅使用默认值与环境变量
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("aimlflow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`aimlflow - AI/ML API gateway client

Usage:
  aimlflow <command> [options]

Commands:
  run       Execute one operation over a batch of items
  models    List the models available to an operation
  serve     Start the HTTP server
  health    Check server health
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>          Path to configuration file (YAML)
  --operation <name>       chatCompletion, imageGeneration, audioGeneration,
                           videoGeneration, speechSynthesis,
                           speechTranscription or embeddingGeneration
  --model <id>             Model identifier
  --input <path>           JSON array of items, "-" reads stdin (default)
  --concurrency <n>        Items in flight (overrides runner.concurrency)
  --continue-on-fail       Emit error rows instead of aborting

Options for 'models':
  --config <path>          Path to configuration file (YAML)
  --operation <name>       Operation to filter models for
  --refresh                Bypass the model catalog cache

Examples:
  echo '[{"params":{"prompt":"a red fox"}}]' | aimlflow run --operation imageGeneration --model flux/schnell
  aimlflow models --operation speechSynthesis
  aimlflow serve --config /etc/aimlflow/config.yaml
  aimlflow health --addr http://localhost:8080`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
