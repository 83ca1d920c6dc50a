package main

import (
	"fmt"
	"os"

	"github.com/BrianaLong/CS340---Client-Server-Development/config"
	"github.com/BrianaLong/CS340---Client-Server-Development/mdb"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load("dbping", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage: dbping [flags]: %s\n", err)
		return 2
	}

	logger, closer, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to configure logging: %s\n", err)
		return 2
	}
	defer func() { _ = closer.Close() }()

	credentials := cfg.Credentials()
	access, err := mdb.Connect(cfg.Mongo.Database, &mdb.Config{
		Credentials: &credentials,
		Logger:      &logger,
		Timeout: mdb.Timeout{
			Connect: cfg.Mongo.ConnectTimeout,
			Ping:    cfg.Mongo.PingTimeout,
		},
	})
	switch {
	case mdb.IsAuthentication(err):
		fmt.Printf("Authentication failed for %s: %s\n", credentials.Redacted(), err)
		return 1
	case err != nil:
		fmt.Printf("Unable to connect to %s: %s\n", credentials.Redacted(), err)
		return 1
	}

	if err := access.Disconnect(); err != nil {
		fmt.Printf("Unable to disconnect from %s: %s\n", cfg.Mongo.Database, err)
		return 1
	}

	fmt.Printf("Connected to %s database %s\n", credentials.Redacted(), cfg.Mongo.Database)
	return 0
}
