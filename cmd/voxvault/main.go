// Package main 启动应用程序
package main

import "github.com/yeisme/voxvault/pkg/cmd"

//	@title			VoxVault API
//	@version		1.0
//	@description	VoxVault 是一个媒体转写与分析服务，提供音视频上传、语音转写、结构化分析和基于转写内容的流式对话功能。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
