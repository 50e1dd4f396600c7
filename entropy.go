package pwscore

import "math/bits"

// 各字符类别对应的字母表大小
const (
	poolUpper    = 26
	poolLower    = 26
	poolDigit    = 10
	poolNonAlnum = 32
)

// alphabetSize 估算字母表大小，类别按“出现与否”累加，与出现次数无关
func alphabetSize(in *input) int {
	size := 0
	if in.hasUpper {
		size += poolUpper
	}
	if in.hasLower {
		size += poolLower
	}
	if in.hasDigit {
		size += poolDigit
	}
	if in.hasNonAlnum {
		size += poolNonAlnum
	}
	return size
}

// entropyOf = 长度 × 字母表大小的二进制位数。
// 位数即表示该整数所需的比特数，size 为 0 时为 0。
func entropyOf(in *input) float64 {
	return float64(in.length * bits.Len(uint(alphabetSize(in))))
}
