package dto

// StatusCreateRequest 记录连通性检查请求体
type StatusCreateRequest struct {
	ClientName string `json:"client_name" binding:"required"`
}

// HelloResponse 根路径欢迎响应
type HelloResponse struct {
	Message string `json:"message"`
}
