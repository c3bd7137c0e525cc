// Copyright 2026 CartoonPrint Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 CartoonPrint 测试的共享工具和辅助函数。

# 概述

testutil 包为流水线、HTTP handler 与服务端入口的测试提供统一的辅助能力，
避免各包重复构造图片、multipart 请求体和外部依赖的替身。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 上传辅助: MultipartBody 构造 file 字段的请求体
  - 文件辅助: ListDir 列出输出目录
  - 异步断言: AssertEventuallyTrue / WaitFor

# 子包

  - testutil/fixtures: 图片样例（纯白图、黑色方块图）与 PNG 编码
  - testutil/mocks: MockRemover（背景去除）、MockRenderer（预览渲染），
    均支持 Builder 模式与错误注入

# 使用示例

	g := pipeline.NewGenerator(cfg, previewCfg, store,
		pipeline.WithRenderer(mocks.NewMockRenderer()))
	res, err := g.Generate(testutil.TestContext(t), "cat.png",
		bytes.NewReader(fixtures.SquarePNG(t)))
*/
package testutil
