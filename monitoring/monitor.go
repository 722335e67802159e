// Package monitoring serves the state of a virtual memory manager over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/addrspace"
	"github.com/sarchlab/vmkern/mem/vm/frame"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
	"github.com/sarchlab/vmkern/mem/vm/tlb"
)

// Monitor turns a virtual memory manager into a server that reports the
// address spaces, the page table, and the translation cache.
type Monitor struct {
	spaces     *addrspace.Manager
	tlb        *tlb.SoftTLB
	portNumber int
	listener   net.Listener

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterManager sets the address-space manager to report.
func (m *Monitor) RegisterManager(spaces *addrspace.Manager) {
	m.spaces = spaces
}

// RegisterTLB sets the translation cache to report.
func (m *Monitor) RegisterTLB(t *tlb.SoftTLB) {
	m.tlb = t
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := newProgressBar(name, total)

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler of all the monitoring routes.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/spaces", m.listSpaces)
	r.HandleFunc("/api/space/{id}", m.spaceDetails)
	r.HandleFunc("/api/table", m.tableStats)
	r.HandleFunc("/api/tlb", m.listTLBSlots)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return r
}

// StartServer starts the monitor as a web server and returns the URL it
// listens on.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring virtual memory with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Router())
		if err != nil && !errors.Is(err, net.ErrClosed) {
			dieOnErr(err)
		}
	}()

	return url
}

// StopServer closes the listener opened by StartServer.
func (m *Monitor) StopServer() {
	if m.listener == nil {
		return
	}

	err := m.listener.Close()
	dieOnErr(err)

	m.listener = nil
}

type spaceSummary struct {
	ID         vm.ASID `json:"id"`
	NumRegions int     `json:"num_regions"`
	NumPages   int     `json:"num_pages"`
}

func (m *Monitor) listSpaces(w http.ResponseWriter, _ *http.Request) {
	if !m.managerOr404(w) {
		return
	}

	table := m.spaces.Table()
	rsp := []spaceSummary{}

	for _, as := range m.spaces.Spaces() {
		table.Lock()
		n := table.CountOwnedBy(as.ID())
		table.Unlock()

		rsp = append(rsp, spaceSummary{
			ID:         as.ID(),
			NumRegions: len(m.spaces.Regions(as)),
			NumPages:   n,
		})
	}

	writeJSON(w, rsp)
}

type spaceDetail struct {
	ID      vm.ASID
	Regions []vm.Region
	Pages   []hpt.Entry
}

func (m *Monitor) spaceDetails(w http.ResponseWriter, r *http.Request) {
	if !m.managerOr404(w) {
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, err = w.Write([]byte("Invalid address space id"))
		dieOnErr(err)

		return
	}

	as, found := m.spaces.Lookup(vm.ASID(id))
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err = w.Write([]byte("Address space not found"))
		dieOnErr(err)

		return
	}

	detail := &spaceDetail{
		ID:      as.ID(),
		Regions: m.spaces.Regions(as),
	}

	table := m.spaces.Table()
	table.Lock()
	table.Walk(func(_ int, _ hpt.EntryID, e hpt.Entry) bool {
		if e.Owner == as.ID() {
			detail.Pages = append(detail.Pages, e)
		}

		return true
	})
	table.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(detail)
	serializer.SetMaxDepth(3)
	err = serializer.Serialize(w)

	dieOnErr(err)
}

type tableRsp struct {
	NumBuckets    int    `json:"num_buckets"`
	NumEntries    int    `json:"num_entries"`
	LongestChain  int    `json:"longest_chain"`
	BucketLengths []int  `json:"bucket_lengths"`
	FramesUsed    int    `json:"frames_used"`
	FramesFree    int    `json:"frames_free"`
	HeapInUse     uint64 `json:"heap_in_use"`
}

func (m *Monitor) tableStats(w http.ResponseWriter, _ *http.Request) {
	if !m.managerOr404(w) {
		return
	}

	table := m.spaces.Table()

	table.Lock()
	rsp := tableRsp{
		NumBuckets:    table.NumBuckets(),
		NumEntries:    table.Len(),
		BucketLengths: table.BucketLengths(),
		HeapInUse:     m.spaces.HeapInUse(),
	}

	if pool, ok := table.Frames().(*frame.Pool); ok {
		rsp.FramesUsed = pool.NumUsed()
		rsp.FramesFree = pool.NumFree()
	}
	table.Unlock()

	for _, l := range rsp.BucketLengths {
		rsp.LongestChain = max(rsp.LongestChain, l)
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listTLBSlots(w http.ResponseWriter, _ *http.Request) {
	if m.tlb == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No translation cache registered"))
		dieOnErr(err)

		return
	}

	writeJSON(w, m.tlb.Slots())
}

func (m *Monitor) managerOr404(w http.ResponseWriter) bool {
	if m.spaces != nil {
		return true
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("No address-space manager registered"))
	dieOnErr(err)

	return false
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bytes, err := json.Marshal(m.progressBars)
	m.progressBarsLock.Unlock()
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
