// Package gpu runs the escape-time kernel on a WebGPU device.
//
// Two WGSL compute shaders are embedded: a native f32 kernel and a
// double-single kernel that carries each scalar as vec2<f32>. WGSL has no
// f64, so double precision always runs on the CPU. Each workgroup covers one
// 16x16 image tile, matching the CPU tiling.
//
// The kernels only count iterations. The host colors and accumulates the
// counts, which keeps both back-ends on one palette.
package gpu
