// Command quiverd runs the quiver server: it loads configuration, opens the
// configured persistence backend, hydrates the namespace from its latest
// snapshot, and serves QL connections until told to stop.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/quiverdb/quiverd/server"
	"github.com/quiverdb/quiverd/util"
)

var version string

// parseOptions mirrors mysqldef/psqldef's own opts struct: flags for every
// persistence connection parameter, a --config file whose values any
// non-empty flag overrides, and
// a --password-prompt escape hatch for not passing secrets on argv.
func parseOptions(args []string) server.Config {
	var opts struct {
		Config   string `long:"config" description:"YAML config file" value-name:"path"`
		Listen   string `long:"listen" description:"Address to listen on" value-name:"host:port"`
		Backend  string `short:"b" long:"backend" description:"Persistence backend (sqlite3, mysql, postgres, mssql, file)" value-name:"backend"`
		DbName   string `long:"db-name" description:"Database/file name for the persistence backend" value-name:"name"`
		User     string `short:"u" long:"user" description:"Persistence backend user" value-name:"user_name"`
		Password string `short:"p" long:"password" description:"Persistence backend password" value-name:"password"`
		Host     string `short:"h" long:"host" description:"Persistence backend host" value-name:"host_name"`
		Port     uint   `short:"P" long:"port" description:"Persistence backend port" value-name:"port_num"`
		Socket   string `short:"S" long:"socket" description:"Persistence backend unix socket" value-name:"socket"`
		Prompt   bool   `long:"password-prompt" description:"Force a password prompt instead of --password"`
		Debug    bool   `long:"debug" description:"Pretty-print every parsed statement before executing it"`
		Version  bool   `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatal(err)
	}

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg, err := server.LoadConfig(opts.Config)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Listen != "" {
		cfg.ListenAddr = opts.Listen
	}
	if opts.Backend != "" {
		cfg.Persistence.Backend = opts.Backend
	}
	if opts.DbName != "" {
		cfg.Persistence.DbName = opts.DbName
	}
	if opts.User != "" {
		cfg.Persistence.User = opts.User
	}
	if opts.Host != "" {
		cfg.Persistence.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Persistence.Port = int(opts.Port)
	}
	if opts.Socket != "" {
		cfg.Persistence.Socket = opts.Socket
	}

	password, ok := os.LookupEnv("QUIVERD_PWD")
	switch {
	case opts.Prompt:
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
		fmt.Println()
	case ok:
	case opts.Password != "":
		password = opts.Password
	}
	if password != "" {
		cfg.Persistence.Password = password
	}

	server.Debug = opts.Debug
	return cfg
}

func main() {
	util.InitSlog()
	cfg := parseOptions(os.Args[1:])

	if server.Debug {
		pp.Println(cfg)
	}

	srv, err := server.Load(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errc:
		if err != nil {
			slog.Error("server stopped with an error", "error", err)
		}
	}

	shutdownCtx := context.Background()
	if err := srv.Finish(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
