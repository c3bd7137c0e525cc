// Package tlsutil 提供集中式 TLS 配置（TLS 1.2+，仅 AEAD 密码套件），
// 用于 HTTPS 服务端（internal/server）与访问外部协作者（rembg）的 HTTP 客户端。
package tlsutil
