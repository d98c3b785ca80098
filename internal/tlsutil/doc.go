/*
Package tlsutil 提供访问 AIMLAPI 网关所用的加固 HTTP 客户端：
TLS 1.2+、仅 AEAD 密码套件、可配置连接池与环境变量代理。
*/
package tlsutil
