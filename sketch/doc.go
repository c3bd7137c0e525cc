// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

/*
Package sketch 实现流水线的栅格阶段：解码、缩略、对比度增强、
素描化（dodge blend）以及二值掩码生成。

# 主要能力

  - Decode：解码 PNG/JPEG/GIF/BMP/TIFF/WebP 为 NRGBA
  - Thumbnail：超过最大边长时等比缩小（Lanczos）
  - EnhanceContrast：以平均亮度为中心的线性对比度增强，保留 alpha
  - Sketch：灰度 → 反相 → 高斯模糊 → gray·256/(255−blur)
  - NewMask：归一化、双线性缩放到 N×N、按阈值取暗部为 true
*/
package sketch
