package main

import (
	"os"
	"sort"

	"github.com/btcsuite/btclog"

	"github.com/bitfsorg/xchain-go/chains/cosmos"
	"github.com/bitfsorg/xchain-go/chains/vechain"
	"github.com/bitfsorg/xchain-go/client"
	"github.com/bitfsorg/xchain-go/network"
	"github.com/bitfsorg/xchain-go/store"
	"github.com/bitfsorg/xchain-go/tx"
)

// backendLog writes every subsystem to stderr so stdout stays clean for
// command output.
var backendLog = btclog.NewBackend(os.Stderr)

var (
	log     = backendLog.Logger("XCLI")
	clntLog = backendLog.Logger("CLNT")
	txcrLog = backendLog.Logger("TXCR")
	netwLog = backendLog.Logger("NETW")
	rsvsLog = backendLog.Logger("RSVS")
	cosmLog = backendLog.Logger("COSM")
	vchnLog = backendLog.Logger("VCHN")
)

func init() {
	client.UseLogger(clntLog)
	tx.UseLogger(txcrLog)
	network.UseLogger(netwLog)
	store.UseLogger(rsvsLog)
	cosmos.UseLogger(cosmLog)
	vechain.UseLogger(vchnLog)
}

// subsystemLoggers maps each subsystem tag to its logger.
var subsystemLoggers = map[string]btclog.Logger{
	"XCLI": log,
	"CLNT": clntLog,
	"TXCR": txcrLog,
	"NETW": netwLog,
	"RSVS": rsvsLog,
	"COSM": cosmLog,
	"VCHN": vchnLog,
}

// setLogLevels sets every subsystem to level.
func setLogLevels(level btclog.Level) {
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}

// supportedSubsystems returns the sorted subsystem tags.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for tag := range subsystemLoggers {
		subsystems = append(subsystems, tag)
	}
	sort.Strings(subsystems)
	return subsystems
}
