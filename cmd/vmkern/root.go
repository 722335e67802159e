package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/vmkern/config"
	"github.com/sarchlab/vmkern/datarecording"
	"github.com/sarchlab/vmkern/mem/vm/addrspace"
	"github.com/sarchlab/vmkern/mem/vm/fault"
	"github.com/sarchlab/vmkern/mem/vm/frame"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
	"github.com/sarchlab/vmkern/mem/vm/tlb"
	"github.com/sarchlab/vmkern/mem/vm/vmtrace"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmkern",
	Short: "vmkern runs a virtual memory manager over a hashed page table.",
	Long: `vmkern runs a virtual memory manager over a hashed page table. ` +
		`It can replay a process lifecycle and serve the resulting state ` +
		`over HTTP.`,
}

func init() {
	rootCmd.PersistentFlags().String("env", "",
		"Read the configuration from this env file instead of .env")
	rootCmd.PersistentFlags().String("record", "",
		"Record every event into this SQLite database")
	rootCmd.PersistentFlags().Bool("verbose", false,
		"Print every event")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// system is a complete virtual memory manager.
type system struct {
	cfg      config.Config
	pool     *frame.Pool
	soft     *tlb.SoftTLB
	tlb      *tlb.Controller
	spaces   *addrspace.Manager
	handler  *fault.Handler
	tracer   *vmtrace.DBTracer
	recorder datarecording.DataRecorder
}

func loadConfig(cmd *cobra.Command) config.Config {
	envFile, _ := cmd.Flags().GetString("env")

	var (
		cfg config.Config
		err error
	)

	if envFile == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.Load(envFile)
	}

	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	return cfg
}

func buildSystem(cmd *cobra.Command) *system {
	cfg := loadConfig(cmd)

	s := &system{cfg: cfg}

	s.pool = frame.NewPool(cfg.NumFrames)
	table := hpt.MakeBuilder().
		WithNumBuckets(cfg.NumBuckets).
		WithMaxEntries(cfg.MaxEntries).
		WithFrameAllocator(s.pool).
		Build()

	s.soft = tlb.NewSoftTLB(cfg.TLBSlots)
	s.tlb = tlb.MakeBuilder().
		WithHardware(s.soft).
		Build("TLB")

	s.spaces = addrspace.MakeBuilder().
		WithPageTable(table).
		WithTLB(s.tlb).
		WithHeapLimit(cfg.HeapLimit).
		WithStackPages(cfg.StackPages).
		Build("VM")

	s.handler = fault.NewHandler(s.spaces, s.tlb)

	s.attachTracers(cmd)

	return s
}

func (s *system) attachTracers(cmd *cobra.Command) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		tracer := vmtrace.NewLogTracer(log.New(os.Stderr, "", log.Lmicroseconds))
		s.spaces.AcceptHook(tracer)
		s.tlb.AcceptHook(tracer)
		s.handler.AcceptHook(tracer)
	}

	if path, _ := cmd.Flags().GetString("record"); path != "" {
		s.recorder = datarecording.New(path)
		s.tracer = vmtrace.NewDBTracer(s.recorder, "events")
		s.spaces.AcceptHook(s.tracer)
		s.tlb.AcceptHook(s.tracer)
		s.handler.AcceptHook(s.tracer)
	}
}
