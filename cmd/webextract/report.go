package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// =============================================================================
// 📊 report 命令
// =============================================================================

// runReport 从运行中的服务拉取性能报告。
// 默认打印汇总文本；--output 时把完整报告文档写入文件。
func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	output := fs.String("output", "", "Write the full JSON report document to this file")
	apiKey := fs.String("api-key", "", "API key when the server requires authentication")
	fs.Parse(args)

	client := &http.Client{Timeout: 30 * time.Second}

	if *output != "" {
		body := fetchJSON(client, *addr+"/api/v1/report", *apiKey)
		var doc struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &doc); err != nil || len(doc.Data) == 0 {
			fmt.Fprintf(os.Stderr, "Unexpected response from server\n")
			os.Exit(1)
		}
		var pretty json.RawMessage = doc.Data
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to format report: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*output, append(out, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", *output)
		return
	}

	body := fetchJSON(client, *addr+"/api/v1/summary", *apiKey)
	var resp struct {
		Data struct {
			SummaryText string `json:"summary_text"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Data.SummaryText == "" {
		fmt.Fprintf(os.Stderr, "Unexpected response from server\n")
		os.Exit(1)
	}
	fmt.Print(resp.Data.SummaryText)
}

// fetchJSON 发起 GET 请求并返回响应体，失败时退出进程
func fetchJSON(client *http.Client, url, apiKey string) []byte {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server address: %v\n", err)
		os.Exit(1)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Request failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read response: %v\n", err)
		os.Exit(1)
	}
	return body
}
