package kernel

import (
	"fmt"
)

// Triton emits Python with @triton.jit kernels.
type Triton struct{}

func (Triton) Name() string    { return "triton" }
func (Triton) Runtime() string { return "python3" }

func (Triton) Prelude() string {
	return "import triton\nimport triton.language as tl\n"
}

func (Triton) Load(uri string) string {
	return fmt.Sprintf("# Load %s to GPU memory", uri)
}

func (Triton) Kernel(name, expr string) string {
	return fmt.Sprintf(`@triton.jit
def %s(x_ptr, output_ptr, n_elements, BLOCK_SIZE: tl.constexpr):
    pid = tl.program_id(axis=0)
    block_start = pid * BLOCK_SIZE
    offsets = block_start + tl.arange(0, BLOCK_SIZE)
    mask = offsets < n_elements
    x = tl.load(x_ptr + offsets, mask=mask)
    output = %s
    tl.store(output_ptr + offsets, output, mask=mask)
`, name, expr)
}

func (Triton) Store(uri string) string {
	return fmt.Sprintf("# Copy result to host and save to %s", uri)
}

func (Triton) Comment(text string) string { return "# " + text }

// CUDA emits CUDA C with __global__ kernels.
type CUDA struct{}

func (CUDA) Name() string    { return "cuda" }
func (CUDA) Runtime() string { return "nvcc" }

func (CUDA) Prelude() string {
	return "#include <cuda_runtime.h>\n"
}

func (CUDA) Load(uri string) string {
	return fmt.Sprintf("// Load %s to device memory", uri)
}

func (CUDA) Kernel(name, expr string) string {
	return fmt.Sprintf(`__global__ void %s(const double* x_ptr, double* output_ptr, int n_elements) {
    int i = blockIdx.x * blockDim.x + threadIdx.x;
    if (i < n_elements) {
        double x = x_ptr[i];
        output_ptr[i] = %s;
    }
}
`, name, expr)
}

func (CUDA) Store(uri string) string {
	return fmt.Sprintf("// Copy result to host and save to %s", uri)
}

func (CUDA) Comment(text string) string { return "// " + text }
