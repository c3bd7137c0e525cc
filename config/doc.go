// Package config 提供 CartoonPrint 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（CARTOONPRINT_ 前缀）三层合并，
// 加载后由 Validate 统一校验。
package config
