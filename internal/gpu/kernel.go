package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNotReady is returned by Counts when no device or pipeline is available.
var ErrNotReady = errors.New("gpu: escape kernel not ready")

// submitTimeout bounds the wait for one dispatch.
const submitTimeout = 5 * time.Second

// pollInterval is the sleep between completion polls.
const pollInterval = 100 * time.Microsecond

// Kernel runs the escape-time iteration as a WGSL compute shader through
// wgpu/hal. It produces raw iteration counts; coloring and accumulation stay
// on the host so both back-ends share one palette.
//
// A Kernel either opens its own Vulkan device (New) or borrows a device
// from a host application (NewShared). Borrowed devices are not destroyed
// on Close.
type Kernel struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shaders    [variantCount]hal.ShaderModule
	pipelines  [variantCount]hal.ComputePipeline
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	ready          bool
	externalDevice bool
	adapterName    string
}

// New opens a Vulkan device on the first discrete or integrated adapter and
// builds both kernel pipelines.
func New() (*Kernel, error) {
	k := &Kernel{}
	if err := k.initGPU(); err != nil {
		k.Close()
		return nil, err
	}
	return k, nil
}

// NewShared builds the kernel pipelines on a device owned by the caller.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewShared(provider any) (*Kernel, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	k := &Kernel{device: device, queue: queue, externalDevice: true, adapterName: "shared"}
	if err := k.createPipelines(); err != nil {
		k.Close()
		return nil, fmt.Errorf("gpu: create pipelines with shared device: %w", err)
	}
	k.ready = true
	slogger().Info("gpu: escape kernel using shared device")
	return k, nil
}

// Name identifies the kernel in logs.
func (k *Kernel) Name() string { return "wgsl-escape" }

// AdapterName returns the name of the adapter the kernel runs on.
func (k *Kernel) AdapterName() string { return k.adapterName }

// Ready reports whether Counts can dispatch.
func (k *Kernel) Ready() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ready
}

// SetLogger routes the package's diagnostics to l.
func (k *Kernel) SetLogger(l *slog.Logger) { setLogger(l) }

// Counts dispatches one launch and returns the iteration count of every
// pixel in row-major order. A count equal to l.Crunch means the point did
// not escape.
func (k *Kernel) Counts(l Launch) ([]uint32, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.ready {
		return nil, ErrNotReady
	}

	counts := make([]uint32, l.Width*l.Height)
	if err := k.dispatch(l, counts); err != nil {
		return nil, fmt.Errorf("gpu: %s dispatch: %w", l.Variant, err)
	}
	return counts, nil
}

func (k *Kernel) dispatch(l Launch, dst []uint32) error {
	countBufSize := uint64(len(dst)) * 4

	paramsBuf, err := k.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "escape_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer k.device.DestroyBuffer(paramsBuf)

	countsBuf, err := k.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "escape_counts", Size: countBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create storage buffer: %w", err)
	}
	defer k.device.DestroyBuffer(countsBuf)

	stagingBuf, err := k.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "escape_staging", Size: countBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer k.device.DestroyBuffer(stagingBuf)

	if err := k.queue.WriteBuffer(paramsBuf, 0, l.uniformBytes()); err != nil {
		return fmt.Errorf("write uniforms: %w", err)
	}

	bindGroup, err := k.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "escape_bind", Layout: k.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: countsBuf.NativeHandle(), Offset: 0, Size: countBufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer k.device.DestroyBindGroup(bindGroup)

	encoder, err := k.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "escape_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("escape"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	gx, gy := l.Workgroups()
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "escape_pass"})
	pass.SetPipeline(k.pipelines[l.Variant])
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(gx, gy, 1)
	pass.End()

	encoder.CopyBufferToBuffer(countsBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: countBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer k.device.FreeCommandBuffer(cmdBuf)

	index, err := k.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := k.awaitSubmission(index); err != nil {
		return err
	}

	mapping, err := k.device.MapBuffer(stagingBuf, 0, countBufSize)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	decodeCounts(unsafe.Slice((*byte)(mapping.Ptr), countBufSize), dst)
	if err := k.device.UnmapBuffer(stagingBuf); err != nil {
		return fmt.Errorf("unmap staging buffer: %w", err)
	}

	slogger().Debug("gpu: escape dispatch",
		"variant", l.Variant, "width", l.Width, "height", l.Height,
		"workgroups_x", gx, "workgroups_y", gy)
	return nil
}

// awaitSubmission blocks until the queue has completed submission index.
func (k *Kernel) awaitSubmission(index uint64) error {
	deadline := time.Now().Add(submitTimeout)
	for k.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for GPU: submission %d not done after %v", index, submitTimeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

func (k *Kernel) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	k.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("gpu: open device: %w", err)
	}
	k.device = openDev.Device
	k.queue = openDev.Queue
	k.adapterName = selected.Info.Name

	if err := k.createPipelines(); err != nil {
		return fmt.Errorf("gpu: create pipelines: %w", err)
	}
	k.ready = true
	slogger().Info("gpu: escape kernel initialized", "adapter", selected.Info.Name)
	return nil
}

func (k *Kernel) createPipelines() error {
	bindLayout, err := k.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "escape_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	k.bindLayout = bindLayout

	pipeLayout, err := k.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "escape_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{k.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	k.pipeLayout = pipeLayout

	for v := range variantCount {
		shader, err := k.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  v.label(),
			Source: hal.ShaderSource{WGSL: v.source()},
		})
		if err != nil {
			return fmt.Errorf("compile %s shader: %w", v.label(), err)
		}
		k.shaders[v] = shader

		pipeline, err := k.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label: v.label() + "_pipeline", Layout: k.pipeLayout,
			Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
		})
		if err != nil {
			return fmt.Errorf("create %s compute pipeline: %w", v.label(), err)
		}
		k.pipelines[v] = pipeline
	}
	return nil
}

func (k *Kernel) destroyPipelines() {
	if k.device == nil {
		return
	}
	for v := range variantCount {
		if k.pipelines[v] != nil {
			k.device.DestroyComputePipeline(k.pipelines[v])
			k.pipelines[v] = nil
		}
		if k.shaders[v] != nil {
			k.device.DestroyShaderModule(k.shaders[v])
			k.shaders[v] = nil
		}
	}
	if k.pipeLayout != nil {
		k.device.DestroyPipelineLayout(k.pipeLayout)
		k.pipeLayout = nil
	}
	if k.bindLayout != nil {
		k.device.DestroyBindGroupLayout(k.bindLayout)
		k.bindLayout = nil
	}
}

// Close releases the pipelines and, for an owned device, the device and
// instance. Close is safe to call multiple times.
func (k *Kernel) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.destroyPipelines()
	if !k.externalDevice {
		if k.device != nil {
			k.device.Destroy()
		}
		if k.instance != nil {
			k.instance.Destroy()
		}
	}
	k.device = nil
	k.instance = nil
	k.queue = nil
	k.ready = false
}
