package main

import (
	"encoding/json"
	"fmt"
	"io"
)

type formatter interface {
	Format(rs []valueReport)
}

type textFormatter struct {
	W io.Writer
}

func (o textFormatter) Format(rs []valueReport) {
	for _, r := range rs {
		fmt.Fprintln(o.W, r)
	}
}

type jsonFormatter struct {
	W io.Writer
}

func (o jsonFormatter) Format(rs []valueReport) {
	if rs == nil {
		rs = []valueReport{}
	}
	json.NewEncoder(o.W).Encode(rs)
}
