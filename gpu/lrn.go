package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// LRNSpec describes a cross-channel local response normalization layer over
// an NCHW float32 tensor: scale = K + Alpha/Size * windowed sum of squared
// activations along the channel axis, output = input * scale^-Beta.
type LRNSpec struct {
	Num      int
	Channels int
	Height   int
	Width    int

	Size  int // channel window length
	Alpha float32
	Beta  float32
	K     float32
}

// Count returns the total element count of the tensor.
func (s LRNSpec) Count() int { return s.Num * s.Channels * s.Height * s.Width }

// Tasks returns the number of independent spatial columns (one sliding
// window walk per (n, y, x) location).
func (s LRNSpec) Tasks() int { return s.Num * s.Height * s.Width }

// LRNLayer runs the LRN forward and backward kernels on the GPU. The forward
// pass is two sequential dispatches sharing one command buffer: a per-column
// scale fill, then an elementwise output kernel. The scale buffer stays on
// device between forward and backward, mirroring the CPU layer's cache.
type LRNLayer struct {
	Spec LRNSpec

	scalePipeline  *wgpu.ComputePipeline
	outputPipeline *wgpu.ComputePipeline
	bwPipeline     *wgpu.ComputePipeline

	scaleBindGroup  *wgpu.BindGroup
	outputBindGroup *wgpu.BindGroup
	bwBindGroup     *wgpu.BindGroup

	InputBuffer      *wgpu.Buffer
	ScaleBuffer      *wgpu.Buffer
	OutputBuffer     *wgpu.Buffer
	TopDiffBuffer    *wgpu.Buffer
	BottomDiffBuffer *wgpu.Buffer
}

// NewLRNLayer allocates buffers and compiles all pipelines for the spec.
func NewLRNLayer(spec LRNSpec) (*LRNLayer, error) {
	if spec.Size < 1 {
		return nil, fmt.Errorf("lrn gpu: window size must be >= 1, got %d", spec.Size)
	}
	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	l := &LRNLayer{Spec: spec}
	if err := l.allocateBuffers(); err != nil {
		l.Cleanup()
		return nil, err
	}
	if err := l.compile(c); err != nil {
		l.Cleanup()
		return nil, err
	}
	if err := l.createBindGroups(c); err != nil {
		l.Cleanup()
		return nil, err
	}
	return l, nil
}

func (l *LRNLayer) allocateBuffers() error {
	count := l.Spec.Count()
	var err error

	if l.InputBuffer, err = NewStorageBuffer("LRN_In", count); err != nil {
		return err
	}
	if l.ScaleBuffer, err = NewStorageBuffer("LRN_Scale", count); err != nil {
		return err
	}
	if l.OutputBuffer, err = NewStorageBuffer("LRN_Out", count); err != nil {
		return err
	}
	if l.TopDiffBuffer, err = NewStorageBuffer("LRN_TopDiff", count); err != nil {
		return err
	}
	if l.BottomDiffBuffer, err = NewStorageBuffer("LRN_BottomDiff", count); err != nil {
		return err
	}
	return nil
}

// GenerateScaleShader emits the forward scale-fill kernel: one invocation per
// spatial column, sliding the window along the channel axis with a running
// add/subtract accumulator. Forward padding split: prePad = (size-1)/2.
func (l *LRNLayer) GenerateScaleShader() string {
	prePad := (l.Spec.Size - 1) / 2
	postPad := l.Spec.Size - prePad - 1
	alphaOverSize := l.Spec.Alpha / float32(l.Spec.Size)

	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<f32>;
		@group(0) @binding(1) var<storage, read_write> scale : array<f32>;

		const C: i32 = %d;
		const STEP: i32 = %d;
		const TASKS: u32 = %du;
		const SIZE: i32 = %d;
		const POST_PAD: i32 = %d;
		const ALPHA_OVER_SIZE: f32 = %g;
		const K: f32 = %g;

		@compute @workgroup_size(1)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			if (gid.x >= TASKS) {
				return;
			}
			let task = i32(gid.x);
			let n = task / STEP;
			let rem = task %% STEP;
			let offset = n * C * STEP + rem;

			var head: i32 = 0;
			var accum: f32 = 0.0;
			while (head < POST_PAD && head < C) {
				let v = input[offset + head * STEP];
				accum += v * v;
				head++;
			}
			while (head < C) {
				let v = input[offset + head * STEP];
				accum += v * v;
				if (head - SIZE >= 0) {
					let u = input[offset + (head - SIZE) * STEP];
					accum -= u * u;
				}
				if (head - POST_PAD >= 0) {
					scale[offset + (head - POST_PAD) * STEP] = K + accum * ALPHA_OVER_SIZE;
				}
				head++;
			}
			while (head < C + POST_PAD) {
				if (head - SIZE >= 0) {
					let u = input[offset + (head - SIZE) * STEP];
					accum -= u * u;
				}
				if (head - POST_PAD >= 0) {
					scale[offset + (head - POST_PAD) * STEP] = K + accum * ALPHA_OVER_SIZE;
				}
				head++;
			}
		}
	`, l.Spec.Channels, l.Spec.Height*l.Spec.Width, l.Spec.Tasks(),
		l.Spec.Size, postPad, alphaOverSize, l.Spec.K)
}

// GenerateOutputShader emits the elementwise output kernel.
func (l *LRNLayer) GenerateOutputShader() string {
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<f32>;
		@group(0) @binding(1) var<storage, read> scale : array<f32>;
		@group(0) @binding(2) var<storage, read_write> output : array<f32>;

		const BETA: f32 = %g;

		@compute @workgroup_size(64)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			let i = gid.x;
			if (i < arrayLength(&output)) {
				output[i] = input[i] * pow(scale[i], -BETA);
			}
		}
	`, l.Spec.Beta)
}

// GenerateBackwardShader emits the gradient kernel. It mirrors the forward
// walk but accumulates topDiff*top/scale, and uses the backward padding split
// prePad = size - (size+1)/2, which differs from the forward one for even
// window sizes. cacheRatio = 2*alpha*beta/size.
func (l *LRNLayer) GenerateBackwardShader() string {
	prePad := l.Spec.Size - (l.Spec.Size+1)/2
	postPad := l.Spec.Size - prePad - 1
	cacheRatio := 2 * l.Spec.Alpha * l.Spec.Beta / float32(l.Spec.Size)

	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> bottom : array<f32>;
		@group(0) @binding(1) var<storage, read> top : array<f32>;
		@group(0) @binding(2) var<storage, read> scale : array<f32>;
		@group(0) @binding(3) var<storage, read> top_diff : array<f32>;
		@group(0) @binding(4) var<storage, read_write> bottom_diff : array<f32>;

		const C: i32 = %d;
		const STEP: i32 = %d;
		const TASKS: u32 = %du;
		const SIZE: i32 = %d;
		const POST_PAD: i32 = %d;
		const BETA: f32 = %g;
		const CACHE_RATIO: f32 = %g;

		fn ratio(i: i32) -> f32 {
			return top_diff[i] * top[i] / scale[i];
		}

		@compute @workgroup_size(1)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			if (gid.x >= TASKS) {
				return;
			}
			let task = i32(gid.x);
			let n = task / STEP;
			let rem = task %% STEP;
			let offset = n * C * STEP + rem;

			var head: i32 = 0;
			var accum: f32 = 0.0;
			while (head < POST_PAD && head < C) {
				accum += ratio(offset + head * STEP);
				head++;
			}
			while (head < C) {
				accum += ratio(offset + head * STEP);
				if (head - SIZE >= 0) {
					accum -= ratio(offset + (head - SIZE) * STEP);
				}
				if (head - POST_PAD >= 0) {
					let i = offset + (head - POST_PAD) * STEP;
					bottom_diff[i] = top_diff[i] * pow(scale[i], -BETA) - CACHE_RATIO * bottom[i] * accum;
				}
				head++;
			}
			while (head < C + POST_PAD) {
				if (head - SIZE >= 0) {
					accum -= ratio(offset + (head - SIZE) * STEP);
				}
				if (head - POST_PAD >= 0) {
					let i = offset + (head - POST_PAD) * STEP;
					bottom_diff[i] = top_diff[i] * pow(scale[i], -BETA) - CACHE_RATIO * bottom[i] * accum;
				}
				head++;
			}
		}
	`, l.Spec.Channels, l.Spec.Height*l.Spec.Width, l.Spec.Tasks(),
		l.Spec.Size, postPad, l.Spec.Beta, cacheRatio)
}

func compilePipeline(c *Context, label, shader string) (*wgpu.ComputePipeline, error) {
	module, err := c.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %v", label, err)
	}
	return c.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   label + "_Pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
}

func (l *LRNLayer) compile(c *Context) error {
	var err error
	if l.scalePipeline, err = compilePipeline(c, "LRN_Scale", l.GenerateScaleShader()); err != nil {
		return err
	}
	if l.outputPipeline, err = compilePipeline(c, "LRN_Output", l.GenerateOutputShader()); err != nil {
		return err
	}
	if l.bwPipeline, err = compilePipeline(c, "LRN_Bwd", l.GenerateBackwardShader()); err != nil {
		return err
	}
	return nil
}

func (l *LRNLayer) createBindGroups(c *Context) error {
	var err error

	l.scaleBindGroup, err = c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "LRN_Scale_Bind",
		Layout: l.scalePipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: l.InputBuffer, Size: l.InputBuffer.GetSize()},
			{Binding: 1, Buffer: l.ScaleBuffer, Size: l.ScaleBuffer.GetSize()},
		},
	})
	if err != nil {
		return err
	}

	l.outputBindGroup, err = c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "LRN_Output_Bind",
		Layout: l.outputPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: l.InputBuffer, Size: l.InputBuffer.GetSize()},
			{Binding: 1, Buffer: l.ScaleBuffer, Size: l.ScaleBuffer.GetSize()},
			{Binding: 2, Buffer: l.OutputBuffer, Size: l.OutputBuffer.GetSize()},
		},
	})
	if err != nil {
		return err
	}

	l.bwBindGroup, err = c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "LRN_Bwd_Bind",
		Layout: l.bwPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: l.InputBuffer, Size: l.InputBuffer.GetSize()},
			{Binding: 1, Buffer: l.OutputBuffer, Size: l.OutputBuffer.GetSize()},
			{Binding: 2, Buffer: l.ScaleBuffer, Size: l.ScaleBuffer.GetSize()},
			{Binding: 3, Buffer: l.TopDiffBuffer, Size: l.TopDiffBuffer.GetSize()},
			{Binding: 4, Buffer: l.BottomDiffBuffer, Size: l.BottomDiffBuffer.GetSize()},
		},
	})
	return err
}

// Forward uploads input, runs the scale-fill and output dispatches in order,
// and reads the output back. input must hold Spec.Count() float32s.
func (l *LRNLayer) Forward(input []float32) ([]float32, error) {
	c, err := GetContext()
	if err != nil {
		return nil, err
	}
	count := l.Spec.Count()
	if len(input) != count {
		return nil, fmt.Errorf("lrn gpu: input has %d elements, spec needs %d", len(input), count)
	}

	c.Queue.WriteBuffer(l.InputBuffer, 0, wgpu.ToBytes(input))

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %v", err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(l.scalePipeline)
	pass.SetBindGroup(0, l.scaleBindGroup, nil)
	pass.DispatchWorkgroups(uint32(l.Spec.Tasks()), 1, 1)

	pass.SetPipeline(l.outputPipeline)
	pass.SetBindGroup(0, l.outputBindGroup, nil)
	pass.DispatchWorkgroups(uint32((count+63)/64), 1, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish command: %v", err)
	}
	c.Queue.Submit(cmd)

	return ReadBuffer(l.OutputBuffer, count)
}

// Backward uploads the upstream gradient, runs the gradient dispatch against
// the on-device input/output/scale from the latest Forward, and reads the
// input gradient back.
func (l *LRNLayer) Backward(topDiff []float32) ([]float32, error) {
	c, err := GetContext()
	if err != nil {
		return nil, err
	}
	count := l.Spec.Count()
	if len(topDiff) != count {
		return nil, fmt.Errorf("lrn gpu: topDiff has %d elements, spec needs %d", len(topDiff), count)
	}

	c.Queue.WriteBuffer(l.TopDiffBuffer, 0, wgpu.ToBytes(topDiff))

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %v", err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(l.bwPipeline)
	pass.SetBindGroup(0, l.bwBindGroup, nil)
	pass.DispatchWorkgroups(uint32(l.Spec.Tasks()), 1, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish command: %v", err)
	}
	c.Queue.Submit(cmd)

	return ReadBuffer(l.BottomDiffBuffer, count)
}

// ReadScale reads the on-device scale buffer (for verification against CPU).
func (l *LRNLayer) ReadScale() ([]float32, error) {
	return ReadBuffer(l.ScaleBuffer, l.Spec.Count())
}

func (l *LRNLayer) Cleanup() {
	for _, b := range []*wgpu.Buffer{
		l.InputBuffer, l.ScaleBuffer, l.OutputBuffer, l.TopDiffBuffer, l.BottomDiffBuffer,
	} {
		if b != nil {
			b.Destroy()
		}
	}
	for _, p := range []*wgpu.ComputePipeline{l.scalePipeline, l.outputPipeline, l.bwPipeline} {
		if p != nil {
			p.Release()
		}
	}
	for _, bg := range []*wgpu.BindGroup{l.scaleBindGroup, l.outputBindGroup, l.bwBindGroup} {
		if bg != nil {
			bg.Release()
		}
	}
}
