// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

// Package storage 管理输出目录：基础名推导、产物写入与 URL 构造。
// 同名上传会互相覆盖，写入不加锁。
package storage
