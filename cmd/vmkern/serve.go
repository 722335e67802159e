package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vmkern/mem/vm/addrspace"
	"github.com/sarchlab/vmkern/monitoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scenario and serve the manager state over HTTP.",
	Long: "`serve` runs the scenario, forks the parent a number of times, " +
		"and keeps the address spaces alive while the monitoring server " +
		"answers requests. Interrupt to quit.",
	Run: func(cmd *cobra.Command, _ []string) {
		s := buildSystem(cmd)

		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") {
			port = s.cfg.MonitorPort
		}

		m := monitoring.NewMonitor().WithPortNumber(port)
		m.RegisterManager(s.spaces)
		m.RegisterTLB(s.soft)
		url := m.StartServer()

		if open, _ := cmd.Flags().GetBool("open"); open {
			err := browser.OpenURL(url + "/api/spaces")
			if err != nil {
				log.Printf("Cannot open browser: %v", err)
			}
		}

		parent, child, err := s.runScenario()
		if err != nil {
			log.Fatalf("Error running scenario: %v", err)
		}

		forks, _ := cmd.Flags().GetInt("forks")
		children := s.forkMany(m, parent, forks)

		waitForInterrupt()

		for _, as := range children {
			s.spaces.Destroy(as)
		}
		s.spaces.Destroy(child)
		s.spaces.Destroy(parent)

		m.StopServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0,
		"Port of the monitoring server, overriding VMKERN_MONITOR_PORT")
	serveCmd.Flags().Int("forks", 8, "Number of extra copies of the parent")
	serveCmd.Flags().Bool("open", false, "Open the monitoring page in a browser")
}

func (s *system) forkMany(
	m *monitoring.Monitor,
	parent *addrspace.AddressSpace,
	n int,
) []*addrspace.AddressSpace {
	bar := m.CreateProgressBar("Fork", uint64(n))
	defer m.CompleteProgressBar(bar)

	children := make([]*addrspace.AddressSpace, 0, n)
	for i := 0; i < n; i++ {
		bar.IncrementInProgress(1)

		as, err := s.spaces.Copy(parent)
		if err != nil {
			log.Printf("Stopped forking after %d copies: %v", i, err)
			break
		}

		children = append(children, as)
		bar.MoveInProgressToFinished(1)
	}

	return children
}

func waitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
