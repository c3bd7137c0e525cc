// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

/*
Package mesh 将二维轮廓拉伸为三维三角网格，并导出为 STL。

# 概述

每条闭合轮廓被复制到 z=0 与 z=height 两个高度，相邻点对之间生成
两个三角形构成侧壁。网格不含顶/底面（开口管状），多条轮廓的网格
仅做拼接，不做布尔合并。

# 核心类型

  - Mesh：顶点数组 + 三角面索引数组
  - Face：三角面的三个顶点索引

# 主要能力

  - Extrude：单条轮廓 → 2N 顶点、2N 三角面
  - Concat：多网格拼接，面索引按顶点偏移
  - Centroid / Bounds：面积加权重心与包围盒
  - WriteSTL：通过 model3d 输出二进制 STL
*/
package mesh
