// Command sequence-demo drives a handful of in-process replicas through a
// random edit script, exchanges their buffered updates, and verifies that
// every replica converged onto the same document.
package main

import (
	"fmt"
	"math/rand"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/replicated/sequence"
	"github.com/replicated/sequence/configuration"
	"github.com/replicated/sequence/container/rope"
	"github.com/replicated/sequence/identifier"
	"github.com/replicated/sequence/replication"
	"github.com/replicated/sequence/version"
)

var (
	showVersion bool
	configPath  string
)

func init() {
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")
	RootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a configuration file")
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd is the main command for the 'sequence-demo' binary.
var RootCmd = &cobra.Command{
	Use:   "sequence-demo",
	Short: "exercise replica convergence over a random edit script",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			version.PrintVersion()
			return nil
		}

		config, err := resolveConfiguration()
		if err != nil {
			return err
		}
		configureLogging(config)

		return run(config)
	},
	SilenceUsage: true,
}

func resolveConfiguration() (*configuration.Configuration, error) {
	if configPath == "" {
		config := &configuration.Configuration{}
		config.Log.Level = "info"
		config.Demo.Authors = []uint16{1, 2, 3}
		config.Demo.Edits = 64
		config.Demo.Text = "convergence is a property, not a hope"
		return config, nil
	}

	fp, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	config, err := configuration.Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %v", configPath, err)
	}
	return config, nil
}

func configureLogging(config *configuration.Configuration) {
	level, err := log.ParseLevel(string(config.Log.Level))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if config.Log.Formatter == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

func run(config *configuration.Configuration) error {
	rng := rand.New(rand.NewSource(config.Demo.Seed))

	boxes := make([]*replication.Box, 0, len(config.Demo.Authors))
	for _, author := range config.Demo.Authors {
		replica, err := sequence.New(rope.NewFromString(config.Demo.Text), identifier.Author(author))
		if err != nil {
			return err
		}
		box := replication.NewMonitoredBox(replica, fmt.Sprintf("replica-%d", author))
		boxes = append(boxes, box)
	}

	// Independent local editing.
	for _, box := range boxes {
		for i := 0; i < config.Demo.Edits; i++ {
			if err := edit(rng, box); err != nil {
				return err
			}
		}
		log.WithFields(log.Fields{
			"author":  box.Replica().Author(),
			"pending": box.Pending(),
			"length":  box.Document().Len(),
		}).Info("local edits applied")
	}

	// Full-mesh exchange: every box drains once and every peer applies
	// the drained updates in emission order.
	for i, box := range boxes {
		drained := box.Drain()
		for j, peer := range boxes {
			if i == j {
				continue
			}
			sink := replication.NewReplicaSink(peer.Replica())
			for _, u := range drained {
				if err := sink.Write(u); err != nil {
					return fmt.Errorf("applying %s to replica %d: %v", u, config.Demo.Authors[j], err)
				}
			}
		}
	}

	reference := boxes[0].Document().(*rope.Rope).String()
	for i, box := range boxes {
		if err := box.Replica().Validate(); err != nil {
			return err
		}
		text := box.Document().(*rope.Rope).String()
		if text != reference {
			box.Replica().DebugSpans()
			return fmt.Errorf("replica %d diverged:\n%q\nvs\n%q", config.Demo.Authors[i], text, reference)
		}
	}

	log.WithFields(log.Fields{
		"replicas": len(boxes),
		"length":   len([]rune(reference)),
	}).Info("replicas converged")
	fmt.Println(reference)
	return nil
}

func edit(rng *rand.Rand, box *replication.Box) error {
	length := box.Document().Len()
	if length > 0 && rng.Intn(4) == 0 {
		return box.Delete(rng.Intn(length))
	}
	return box.Insert(rng.Intn(length+1), rune('a'+rng.Intn(26)))
}
