package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/addrspace"
	"github.com/sarchlab/vmkern/mem/vm/fault"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
)

const (
	textBase  = 0x400000
	textSize  = 2 * vm.PageSize
	dataBase  = 0x600000
	dataSize  = 3 * vm.PageSize
	heapTouch = 0x601000
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Load a program, fork it, and print both address spaces.",
	Long: "`scenario` creates an address space, defines text, data, and " +
		"stack regions, loads the program through faults, forks the " +
		"process, and prints the regions and page-table entries of parent " +
		"and child.",
	Run: func(cmd *cobra.Command, _ []string) {
		s := buildSystem(cmd)

		parent, child, err := s.runScenario()
		if err != nil {
			log.Fatalf("Error running scenario: %v", err)
		}

		s.report(os.Stdout, parent)
		s.report(os.Stdout, child)

		s.spaces.Destroy(child)
		s.spaces.Destroy(parent)
	},
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}

// runScenario loads a program into a fresh address space and forks it.
func (s *system) runScenario() (parent, child *addrspace.AddressSpace, err error) {
	parent, err = s.spaces.Create()
	if err != nil {
		return nil, nil, err
	}

	err = s.loadProgram(parent)
	if err != nil {
		s.spaces.Destroy(parent)
		return nil, nil, err
	}

	child, err = s.spaces.Copy(parent)
	if err != nil {
		s.spaces.Destroy(parent)
		return nil, nil, err
	}

	return parent, child, nil
}

func (s *system) loadProgram(as *addrspace.AddressSpace) error {
	err := s.spaces.DefineRegion(as, textBase, textSize, true, false, true)
	if err != nil {
		return err
	}

	err = s.spaces.DefineRegion(as, dataBase, dataSize, true, true, false)
	if err != nil {
		return err
	}

	stackTop, err := s.spaces.DefineStack(as)
	if err != nil {
		return err
	}

	err = s.spaces.PrepareLoad(as)
	if err != nil {
		return err
	}

	for addr := uint64(textBase); addr < textBase+textSize; addr += vm.PageSize {
		err = s.handler.HandleFault(as, fault.Write, addr)
		if err != nil {
			return err
		}
	}

	err = s.handler.HandleFault(as, fault.Write, dataBase)
	if err != nil {
		return err
	}

	err = s.spaces.CompleteLoad(as)
	if err != nil {
		return err
	}

	err = s.handler.HandleFault(as, fault.Write, heapTouch)
	if err != nil {
		return err
	}

	return s.handler.HandleFault(as, fault.Write, stackTop-vm.PageSize)
}

func (s *system) report(w io.Writer, as *addrspace.AddressSpace) {
	fmt.Fprintf(w, "address space %d\n", as.ID())

	for _, r := range s.spaces.Regions(as) {
		fmt.Fprintf(w, "  region 0x%08x-0x%08x %s\n", r.Base, r.End(), r.Perms)
	}

	table := s.spaces.Table()
	table.Lock()
	table.Walk(func(bucket int, _ hpt.EntryID, e hpt.Entry) bool {
		if e.Owner != as.ID() {
			return true
		}

		dirty := "clean"
		if e.Dirty {
			dirty = "dirty"
		}

		fmt.Fprintf(w, "  page 0x%08x -> frame 0x%08x %s bucket %d\n",
			vm.PageAddr(e.VPN), uint64(e.Frame), dirty, bucket)

		return true
	})
	table.Unlock()
}
