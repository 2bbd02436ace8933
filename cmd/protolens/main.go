// Command protolens decodes a protobuf wire-format payload against a loaded
// schema and prints the result as JSON.
//
// Usage:
//
//	protolens -proto ./schemas -type shop.Order payload.bin
//	protolens -config decode.toml payload.bin
//
// The config file carries the same settings as the flags, for repeated
// invocations against one schema tree:
//
//	proto_paths = ["./schemas"]
//	message_type = "shop.Order"
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	protolens "github.com/protolens/protolens"
)

type config struct {
	ProtoPaths  []string `toml:"proto_paths"`
	MessageType string   `toml:"message_type"`
}

func main() {
	var (
		configPath  = flag.String("config", "", "TOML config file")
		protoPath   = flag.String("proto", "", ".proto file or directory to load")
		messageType = flag.String("type", "", "fully-qualified message type of the payload")
		pretty      = flag.Bool("pretty", false, "indent the JSON output")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.WarnLevel)
	}

	cfg := config{}
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("failed to read config")
		}
	}
	if *protoPath != "" {
		cfg.ProtoPaths = append(cfg.ProtoPaths, *protoPath)
	}
	if *messageType != "" {
		cfg.MessageType = *messageType
	}

	if len(cfg.ProtoPaths) == 0 || cfg.MessageType == "" || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	lens := protolens.New()
	for _, path := range cfg.ProtoPaths {
		log.Info().Str("path", path).Msg("loading schema")
		if err := lens.LoadSchema(path); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load schema")
		}
	}
	log.Info().Strs("messages", lens.ListMessages()).Msg("schema loaded")

	payload, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read payload")
	}

	result, err := lens.Parse(payload, cfg.MessageType)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.MessageType).Msg("decode failed")
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		log.Fatal().Err(err).Msg("failed to encode result")
	}
}
