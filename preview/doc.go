// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

/*
Package preview 渲染网格的 PNG 预览图。

# 相机

CameraFor 以网格重心为目标，把 (0,0,distance) 依次绕 X、Y、Z 轴
按欧拉角旋转得到相机位置，上方向为旋转后的 +Y。默认角度 (90°,0,0)
时相机位于重心 -Y 方向 200 单位处，Z 轴朝上。

# 渲染器

  - RayCaster：基于 model3d/render3d 的光线投射，点光源位于相机处
  - 空网格直接返回纯色背景图
*/
package preview
